package leave_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-lms/internal/domain"
	"go-lms/internal/leave"
	leaveerrors "go-lms/internal/leave/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLeaveService struct {
	leave.Service
	createFn  func(ctx context.Context, userID string, req leave.CreateLeaveRequest) (leave.LeaveResponse, error)
	getByIDFn func(ctx context.Context, id string) (leave.LeaveResponse, error)
	rejectFn  func(ctx context.Context, id, by, name, reason string) (leave.LeaveResponse, error)
	expireFn  func(ctx context.Context) (leave.SweepResult, error)
}

func (f *fakeLeaveService) Create(ctx context.Context, userID string, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
	return f.createFn(ctx, userID, req)
}

func (f *fakeLeaveService) GetByID(ctx context.Context, id string) (leave.LeaveResponse, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeLeaveService) Reject(ctx context.Context, id, by, name, reason string) (leave.LeaveResponse, error) {
	return f.rejectFn(ctx, id, by, name, reason)
}

func (f *fakeLeaveService) ExpireKitchenLeaves(ctx context.Context) (leave.SweepResult, error) {
	return f.expireFn(ctx)
}

type fakeEnforcer struct {
	allowed map[string]bool
}

func (f *fakeEnforcer) Enforce(req domain.EnforceRequest) (bool, error) {
	return f.allowed[req.Role+":"+req.Resource+":"+req.Action], nil
}

type envelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestLeaveHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &fakeLeaveService{
			createFn: func(ctx context.Context, userID string, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
				assert.Equal(t, "u-1", userID)
				assert.Equal(t, leave.TypeKitchenLeave, req.LeaveType)
				return leave.LeaveResponse{ID: "l-1", Status: leave.StatusPending}, nil
			},
		}
		h := leave.NewHandler(svc, &fakeEnforcer{})
		c, w := newContext(http.MethodPost, "/leaves",
			`{"leave_type":"kitchen_leave","start_date":"2025-01-10","end_date":"2025-01-10"}`)
		c.Set("user_id_validated", "u-1")

		h.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, decode(t, w).Ok)
	})

	t.Run("unknown leave type is rejected by binding", func(t *testing.T) {
		h := leave.NewHandler(&fakeLeaveService{}, &fakeEnforcer{})
		c, w := newContext(http.MethodPost, "/leaves",
			`{"leave_type":"sick","start_date":"2025-01-10","end_date":"2025-01-10"}`)
		c.Set("user_id_validated", "u-1")

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_INPUT", decode(t, w).Error.Code)
	})

	t.Run("conflict message reaches the caller", func(t *testing.T) {
		svc := &fakeLeaveService{
			createFn: func(ctx context.Context, userID string, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.RequestConflict("leave", "1/1/2025", "5/1/2025", "approved")
			},
		}
		h := leave.NewHandler(svc, &fakeEnforcer{})
		c, w := newContext(http.MethodPost, "/leaves",
			`{"leave_type":"on_leave","start_date":"2025-01-04","end_date":"2025-01-06","reason":"x"}`)

		h.Create(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		env := decode(t, w)
		assert.Equal(t, "CONFLICT", env.Error.Code)
		assert.Contains(t, env.Error.Message, "from 1/1/2025 to 5/1/2025 with status: approved")
	})
}

func TestLeaveHandler_GetByID(t *testing.T) {
	svc := &fakeLeaveService{
		getByIDFn: func(ctx context.Context, id string) (leave.LeaveResponse, error) {
			return leave.LeaveResponse{ID: id, UserID: "owner"}, nil
		},
	}
	authz := &fakeEnforcer{allowed: map[string]bool{"mentor:leave:read": true}}
	h := leave.NewHandler(svc, authz)

	tests := []struct {
		name   string
		userID string
		role   string
		want   int
	}{
		{"owner", "owner", "student", http.StatusOK},
		{"reviewer", "m-1", "mentor", http.StatusOK},
		{"other student", "s-2", "student", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newContext(http.MethodGet, "/leaves/l-1", "")
			c.Params = gin.Params{{Key: "id", Value: "l-1"}}
			c.Set("user_id_validated", tt.userID)
			c.Set("role", tt.role)

			h.GetByID(c)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestLeaveHandler_Reject(t *testing.T) {
	t.Run("without body", func(t *testing.T) {
		svc := &fakeLeaveService{
			rejectFn: func(ctx context.Context, id, by, name, reason string) (leave.LeaveResponse, error) {
				assert.Equal(t, "l-1", id)
				assert.Equal(t, "aa-1", by)
				assert.Equal(t, "Associate", name)
				assert.Empty(t, reason)
				return leave.LeaveResponse{ID: id, Status: leave.StatusRejected}, nil
			},
		}
		h := leave.NewHandler(svc, &fakeEnforcer{})
		c, w := newContext(http.MethodPost, "/leaves/l-1/reject", "")
		c.Params = gin.Params{{Key: "id", Value: "l-1"}}
		c.Set("user_id_validated", "aa-1")
		c.Set("user_name", "Associate")

		h.Reject(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("not pending", func(t *testing.T) {
		svc := &fakeLeaveService{
			rejectFn: func(ctx context.Context, id, by, name, reason string) (leave.LeaveResponse, error) {
				assert.Equal(t, "duplicate", reason)
				return leave.LeaveResponse{}, leaveerrors.ErrNotPending
			},
		}
		h := leave.NewHandler(svc, &fakeEnforcer{})
		c, w := newContext(http.MethodPost, "/leaves/l-1/reject", `{"rejection_reason":"duplicate"}`)
		c.Params = gin.Params{{Key: "id", Value: "l-1"}}
		c.Set("user_id_validated", "aa-1")

		h.Reject(c)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "INVALID_STATE", decode(t, w).Error.Code)
	})
}

func TestLeaveHandler_RunSweep(t *testing.T) {
	t.Run("partial failure still reports the result", func(t *testing.T) {
		svc := &fakeLeaveService{
			expireFn: func(ctx context.Context) (leave.SweepResult, error) {
				return leave.SweepResult{Sweep: leave.SweepExpireKitchenLeaves, Scanned: 2, Processed: 1, Failed: 1}, errStore
			},
		}
		h := leave.NewHandler(svc, &fakeEnforcer{})
		c, w := newContext(http.MethodPost, "/leaves/sweeps/expire-kitchen-leaves", "")
		c.Params = gin.Params{{Key: "name", Value: leave.SweepExpireKitchenLeaves}}

		h.RunSweep(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var res leave.SweepResult
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &res))
		assert.Equal(t, 1, res.Failed)
	})

	t.Run("unknown sweep", func(t *testing.T) {
		h := leave.NewHandler(&fakeLeaveService{}, &fakeEnforcer{})
		c, w := newContext(http.MethodPost, "/leaves/sweeps/nope", "")
		c.Params = gin.Params{{Key: "name", Value: "nope"}}

		h.RunSweep(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
