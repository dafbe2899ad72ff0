package user

type UpdateUserRequest struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=255"`
	Role *string `json:"role" binding:"omitempty,oneof=student mentor admin academic_associate"`
}

type UserResponse struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Email                string  `json:"email"`
	Role                 string  `json:"role"`
	Status               string  `json:"status"`
	LeaveFrom            *string `json:"leave_from,omitempty"`
	LeaveTo              *string `json:"leave_to,omitempty"`
	UnapprovedLeaveStart *string `json:"unapproved_leave_start,omitempty"`
	CreatedAt            string  `json:"created_at"`
	UpdatedAt            string  `json:"updated_at"`
}
