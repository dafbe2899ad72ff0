package leave

import (
	"go-lms/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts /leaves. createGuards run before Create (rate limit, idempotency).
func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService middleware.RBACService,
	createGuards []gin.HandlerFunc,
	auth ...gin.HandlerFunc,
) {
	leaves := r.Group("/leaves")
	leaves.Use(auth...)
	{
		create := append([]gin.HandlerFunc{middleware.RBACAuthorize(rbacService, "leave", "create")}, createGuards...)
		leaves.POST("", append(create, handler.Create)...)

		leaves.GET("/me", middleware.RBACAuthorize(rbacService, "leave", "read_own"), handler.ListMine)
		leaves.GET("/me/active", middleware.RBACAuthorize(rbacService, "leave", "read_own"), handler.GetMyActive)

		leaves.GET("", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetAll)
		leaves.GET("/pending", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.GetPending)
		leaves.GET("/pending/count", middleware.RBACAuthorize(rbacService, "leave", "read"), handler.CountPending)

		leaves.GET("/:id", middleware.RBACAuthorize(rbacService, "leave", "read_own"), handler.GetByID)

		leaves.POST("/:id/approve", middleware.RBACAuthorize(rbacService, "leave", "review"), handler.Approve)
		leaves.POST("/:id/reject", middleware.RBACAuthorize(rbacService, "leave", "review"), handler.Reject)

		leaves.POST("/sweeps/:name", middleware.RBACAuthorize(rbacService, "leave", "sweep"), handler.RunSweep)
	}
}
