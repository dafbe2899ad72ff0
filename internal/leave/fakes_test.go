package leave_test

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"
	"time"

	"go-lms/internal/leave"
	"go-lms/internal/notification"
	"go-lms/internal/shared/datex"
	"go-lms/internal/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memLeaveRepo keeps leaves in insertion order. Transactions are ignored; sqlmock asserts them.
type memLeaveRepo struct {
	leaves    []leave.Leave
	seq       int
	errs      map[string]error
	updateErr func(l *leave.Leave) error
}

func newMemLeaveRepo() *memLeaveRepo {
	return &memLeaveRepo{errs: map[string]error{}}
}

func (r *memLeaveRepo) add(l leave.Leave) leave.Leave {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	r.seq++
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.seq) * time.Minute)
		l.UpdatedAt = l.CreatedAt
	}
	r.leaves = append(r.leaves, l)
	return l
}

func (r *memLeaveRepo) get(id uuid.UUID) leave.Leave {
	for _, l := range r.leaves {
		if l.ID == id {
			return l
		}
	}
	return leave.Leave{}
}

func (r *memLeaveRepo) WithTx(tx *sql.Tx) leave.Repository {
	return r
}

func (r *memLeaveRepo) Create(ctx context.Context, l *leave.Leave) error {
	if err := r.errs["Create"]; err != nil {
		return err
	}
	*l = r.add(*l)
	return nil
}

func (r *memLeaveRepo) FindByID(ctx context.Context, id string) (*leave.Leave, error) {
	if err := r.errs["FindByID"]; err != nil {
		return nil, err
	}
	for _, l := range r.leaves {
		if l.ID.String() == id {
			cp := l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memLeaveRepo) FindByIDForUpdate(ctx context.Context, id string) (*leave.Leave, error) {
	return r.FindByID(ctx, id)
}

func (r *memLeaveRepo) newestFirst(keep func(leave.Leave) bool) []leave.Leave {
	var out []leave.Leave
	for _, l := range r.leaves {
		if keep(l) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memLeaveRepo) FindByUser(ctx context.Context, userID string) ([]leave.Leave, error) {
	if err := r.errs["FindByUser"]; err != nil {
		return nil, err
	}
	return r.newestFirst(func(l leave.Leave) bool { return l.UserID.String() == userID }), nil
}

func (r *memLeaveRepo) FindLatestOpenByUser(ctx context.Context, userID string) (*leave.Leave, error) {
	list := r.newestFirst(func(l leave.Leave) bool { return l.UserID.String() == userID && l.Open() })
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &list[0], nil
}

func (r *memLeaveRepo) FindByStatus(ctx context.Context, status string) ([]leave.Leave, error) {
	if err := r.errs["FindByStatus"]; err != nil {
		return nil, err
	}
	return r.newestFirst(func(l leave.Leave) bool { return l.Status == status }), nil
}

func (r *memLeaveRepo) FindAll(ctx context.Context) ([]leave.Leave, error) {
	return r.newestFirst(func(leave.Leave) bool { return true }), nil
}

func (r *memLeaveRepo) FindApproved(ctx context.Context, leaveType string) ([]leave.Leave, error) {
	if err := r.errs["FindApproved"]; err != nil {
		return nil, err
	}
	var out []leave.Leave
	for _, l := range r.leaves {
		if l.Status == leave.StatusApproved && (leaveType == "" || l.LeaveType == leaveType) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r *memLeaveRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	if err := r.errs["CountByStatus"]; err != nil {
		return 0, err
	}
	return int64(len(r.newestFirst(func(l leave.Leave) bool { return l.Status == status }))), nil
}

func (r *memLeaveRepo) Update(ctx context.Context, l *leave.Leave) error {
	if r.updateErr != nil {
		if err := r.updateErr(l); err != nil {
			return err
		}
	}
	for i := range r.leaves {
		if r.leaves[i].ID == l.ID {
			r.leaves[i] = *l
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memUserRepo struct {
	users          []*user.User
	findByRolesErr error
	updateErr      error
	updates        int
}

func (r *memUserRepo) add(name, role, status string) *user.User {
	u := &user.User{
		ID:     uuid.New(),
		Name:   name,
		Email:  name + "@campus.test",
		Role:   role,
		Status: status,
	}
	r.users = append(r.users, u)
	return u
}

func (r *memUserRepo) WithTx(tx *sql.Tx) user.Repository {
	return r
}

func (r *memUserRepo) Create(ctx context.Context, u *user.User) error {
	r.users = append(r.users, u)
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, id string) (*user.User, error) {
	for _, u := range r.users {
		if u.ID.String() == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) FindByIDForUpdate(ctx context.Context, id string) (*user.User, error) {
	return r.FindByID(ctx, id)
}

func (r *memUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) FindByRoles(ctx context.Context, roles ...string) ([]user.User, error) {
	if r.findByRolesErr != nil {
		return nil, r.findByRolesErr
	}
	var out []user.User
	for _, u := range r.users {
		for _, role := range roles {
			if u.Role == role {
				out = append(out, *u)
				break
			}
		}
	}
	return out, nil
}

func (r *memUserRepo) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	for _, u := range r.users {
		if u.ID.String() != id {
			continue
		}
		r.updates++
		for k, v := range fields {
			switch k {
			case user.FieldStatus:
				u.Status = v.(string)
			case user.FieldLeaveFrom:
				u.LeaveFrom = timeField(v)
			case user.FieldLeaveTo:
				u.LeaveTo = timeField(v)
			case user.FieldUnapprovedLeaveStart:
				u.UnapprovedLeaveStart = timeField(v)
			}
		}
		return nil
	}
	return gorm.ErrRecordNotFound
}

func timeField(v any) *time.Time {
	if v == nil {
		return nil
	}
	t := v.(time.Time)
	return &t
}

type recordingInvalidator struct {
	keys     []string
	prefixes []string
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, keys ...string) error {
	r.keys = append(r.keys, keys...)
	return nil
}

func (r *recordingInvalidator) InvalidatePattern(ctx context.Context, prefix string) error {
	r.prefixes = append(r.prefixes, prefix)
	return nil
}

type recordingDispatcher struct {
	intents []notification.Intent
	err     error
}

func (r *recordingDispatcher) Dispatch(ctx context.Context, intents ...notification.Intent) error {
	r.intents = append(r.intents, intents...)
	return r.err
}

func (r *recordingDispatcher) types() []string {
	out := make([]string, len(r.intents))
	for i, in := range r.intents {
		out[i] = in.Type
	}
	return out
}

type leaveEnv struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	leaves   *memLeaveRepo
	users    *memUserRepo
	cache    *recordingInvalidator
	notifier *recordingDispatcher
	svc      leave.Service
}

func newLeaveEnv(t *testing.T, now time.Time, opts ...leave.Option) *leaveEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &leaveEnv{
		db:       db,
		mock:     mock,
		leaves:   newMemLeaveRepo(),
		users:    &memUserRepo{},
		cache:    &recordingInvalidator{},
		notifier: &recordingDispatcher{},
	}
	opts = append([]leave.Option{leave.WithClock(func() time.Time { return now })}, opts...)
	env.svc = leave.NewService(db, env.leaves, env.users, env.cache, env.notifier, opts...)
	return env
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func day(t *testing.T, v string) time.Time {
	t.Helper()
	d, err := datex.Parse(v)
	require.NoError(t, err)
	return d
}

func newLeave(t *testing.T, userID uuid.UUID, leaveType, status, start, end string) leave.Leave {
	t.Helper()
	return leave.Leave{
		ID:        uuid.New(),
		UserID:    userID,
		UserName:  "U",
		LeaveType: leaveType,
		Status:    status,
		StartDate: day(t, start),
		EndDate:   day(t, end),
	}
}

var errStore = errors.New("connection reset")
