package user_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-lms/internal/user"
	usererrors "go-lms/internal/user/errors"
	"go-lms/internal/user/mock"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

func TestUserHandler_GetMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New().String()

	ctrl := gomock.NewController(t)
	svc := mock.NewMockService(ctrl)
	svc.EXPECT().
		GetByID(gomock.Any(), userID).
		Return(user.UserResponse{ID: userID, Status: user.StatusActive}, nil)
	h := user.NewHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/users/me", nil)
	c.Set("user_id_validated", userID)

	h.GetMe(c)

	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w.Body.Bytes())
	assert.True(t, env.Ok)
	var got user.UserResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, userID, got.ID)
}

func TestUserHandler_GetByID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := mock.NewMockService(ctrl)
		svc.EXPECT().
			GetByID(gomock.Any(), gomock.Any()).
			Return(user.UserResponse{}, usererrors.ErrUserNotFound)
		h := user.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/users/x", nil)
		c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}

		h.GetByID(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})
}

func TestUserHandler_Update(t *testing.T) {
	gin.SetMode(gin.TestMode)
	id := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		role := user.RoleMentor
		ctrl := gomock.NewController(t)
		svc := mock.NewMockService(ctrl)
		svc.EXPECT().
			Update(gomock.Any(), id, user.UpdateUserRequest{Role: &role}).
			Return(user.UserResponse{ID: id, Role: role}, nil)
		h := user.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPatch, "/users/"+id, strings.NewReader(`{"role":"mentor"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = gin.Params{{Key: "id", Value: id}}

		h.Update(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid role rejected by binding", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		h := user.NewHandler(mock.NewMockService(ctrl))

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPatch, "/users/"+id, strings.NewReader(`{"role":"janitor"}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = gin.Params{{Key: "id", Value: id}}

		h.Update(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.Equal(t, "INVALID_INPUT", env.Error.Code)
	})
}
