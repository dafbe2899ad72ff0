package leave

import (
	"net/http"

	"go-lms/internal/domain"
	leaveerrors "go-lms/internal/leave/errors"
	"go-lms/internal/middleware"
	"go-lms/internal/shared/apperror"
	"go-lms/internal/shared/contextutil"
	"go-lms/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	authz   middleware.RBACService
	logger  *zap.Logger
}

// NewHandler builds the leave handler. authz decides whether a caller may read leaves
// that are not their own.
func NewHandler(service Service, authz middleware.RBACService, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, authz: authz, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("leave request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func actor(c *gin.Context) (string, string) {
	return c.GetString("user_id_validated"), c.GetString("user_name")
}

func (h *Handler) Create(c *gin.Context) {
	userID, _ := actor(c)
	h.logger.Debug("http create leave", zap.String("user_id", userID))

	var req CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	ctx := contextutil.WithLogger(c.Request.Context(), h.logger)
	resp, err := h.service.Create(ctx, userID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) ListMine(c *gin.Context) {
	userID, _ := actor(c)

	resp, err := h.service.GetUserLeaves(c.Request.Context(), userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, meta := response.Paginate(c, resp)
	response.Success(c, http.StatusOK, page, &meta)
}

func (h *Handler) GetMyActive(c *gin.Context) {
	userID, _ := actor(c)

	resp, err := h.service.GetActiveLeave(c.Request.Context(), userID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"leave": resp}, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	resp, err := h.service.GetAll(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, meta := response.Paginate(c, resp)
	response.Success(c, http.StatusOK, page, &meta)
}

func (h *Handler) GetPending(c *gin.Context) {
	resp, err := h.service.GetPending(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, meta := response.Paginate(c, resp)
	response.Success(c, http.StatusOK, page, &meta)
}

func (h *Handler) CountPending(c *gin.Context) {
	count, err := h.service.CountPending(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, CountResponse{Count: count}, nil)
}

// GetByID returns a leave to its owner or to a reviewer. Anyone else sees not found.
func (h *Handler) GetByID(c *gin.Context) {
	userID, _ := actor(c)

	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if resp.UserID != userID {
		allowed, err := h.authz.Enforce(domain.EnforceRequest{
			Role:     c.GetString("role"),
			Resource: "leave",
			Action:   "read",
		})
		if err != nil {
			h.writeServiceError(c, err)
			return
		}
		if !allowed {
			h.writeServiceError(c, leaveerrors.ErrLeaveNotFound)
			return
		}
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	approverID, approverName := actor(c)
	ctx := contextutil.WithLogger(c.Request.Context(), h.logger)

	resp, err := h.service.Approve(ctx, c.Param("id"), approverID, approverName)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reject(c *gin.Context) {
	rejecterID, rejecterName := actor(c)

	var req RejectLeaveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}
	}

	ctx := contextutil.WithLogger(c.Request.Context(), h.logger)
	resp, err := h.service.Reject(ctx, c.Param("id"), rejecterID, rejecterName, req.RejectionReason)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

// RunSweep triggers one sweep by name. Per-record failures are reported in the result;
// only a sweep that could not start is an error response.
func (h *Handler) RunSweep(c *gin.Context) {
	name := c.Param("name")
	ctx := contextutil.WithLogger(c.Request.Context(), h.logger)

	res, err := RunSweep(ctx, h.service, name)
	if err != nil {
		if res.Scanned == 0 {
			h.writeServiceError(c, err)
			return
		}
		h.logger.Warn("sweep finished with failures", zap.String("sweep", name), zap.Error(err))
	}

	response.Success(c, http.StatusOK, res, nil)
}
