package notification

import (
	"go-lms/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	auth ...gin.HandlerFunc,
) {
	notifications := r.Group("/notifications")
	notifications.Use(auth...)
	notifications.Use(middleware.RBACAuthorize(rbacService, "notification", "read"))
	{
		notifications.GET("", handler.ListMine)
		notifications.POST("/:id/read", handler.MarkRead)
	}
}
