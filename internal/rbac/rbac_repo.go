package rbac

type RolePermissionRow struct {
	Role     string
	Resource string
	Action   string
}

type RoleInheritanceRow struct {
	Role   string
	Parent string
}

type Repository interface {
	GetRolePermissions() ([]RolePermissionRow, error)
	GetRoleInheritance() ([]RoleInheritanceRow, error)
}

type staticRepository struct {
	permissions []RolePermissionRow
	inheritance []RoleInheritanceRow
}

// NewStaticRepository serves the campus role policy compiled into the binary.
func NewStaticRepository() Repository {
	return &staticRepository{
		permissions: []RolePermissionRow{
			{Role: "student", Resource: "leave", Action: "create"},
			{Role: "student", Resource: "leave", Action: "read_own"},
			{Role: "student", Resource: "user", Action: "read_self"},
			{Role: "student", Resource: "notification", Action: "read"},

			{Role: "mentor", Resource: "leave", Action: "read"},
			{Role: "mentor", Resource: "leave", Action: "review"},
			{Role: "mentor", Resource: "user", Action: "read"},

			{Role: "admin", Resource: "leave", Action: "sweep"},
			{Role: "admin", Resource: "user", Action: "update"},
		},
		inheritance: []RoleInheritanceRow{
			{Role: "mentor", Parent: "student"},
			{Role: "academic_associate", Parent: "mentor"},
			{Role: "admin", Parent: "academic_associate"},
		},
	}
}

func (r *staticRepository) GetRolePermissions() ([]RolePermissionRow, error) {
	return r.permissions, nil
}

func (r *staticRepository) GetRoleInheritance() ([]RoleInheritanceRow, error) {
	return r.inheritance, nil
}
