package user

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
	users := r.Group("/users")
	users.Use(auth...)
	{
		users.GET("/me",
			middleware.RBACAuthorize(rbacService, "user", "read_self"),
			handler.GetMe,
		)

		users.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "user", "read"),
			handler.GetByID,
		)

		users.PATCH("/:id",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "user", "update"),
			handler.Update,
		)
	}
}
