package rbac

import (
	"go-lms/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, auth ...gin.HandlerFunc) {
	group := r.Group("/rbac")
	group.Use(auth...)
	{
		group.POST("/enforce", handler.Enforce)
		group.GET("/permissions/me", handler.MyPermissions)
		group.GET("/roles/:role/permissions",
			middleware.RBACAuthorize(handler.service, "user", "read"),
			handler.RolePermissions,
		)
	}
}
