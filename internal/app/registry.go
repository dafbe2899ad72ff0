package app

import (
	"go-lms/internal/config"
	"go-lms/internal/leave"
	"go-lms/internal/middleware"
	"go-lms/internal/notification"
	"go-lms/internal/rbac"
	"go-lms/internal/rbac/infra"
	"go-lms/internal/shared/cache"
	"go-lms/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	in *resources,
	logger *zap.Logger,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewStaticRepository()
	userRepo := user.NewRepository(in.gormDB)
	notificationRepo := notification.NewRepository(in.gormDB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer, logger)
	if err := rbacService.LoadPolicy(); err != nil {
		return err
	}

	// --- Services ---
	userService := user.NewService(userRepo, cache.NewRedisStore(in.rdb), cfg.Redis.UserTTL, logger)
	notificationService := notification.NewService(notificationRepo, logger)
	leaveService, err := newLeaveService(cfg, in, logger)
	if err != nil {
		return err
	}

	// --- Handlers ---
	rbacHandler := rbac.NewHandler(rbacService, logger)
	userHandler := user.NewHandler(userService, logger)
	notificationHandler := notification.NewHandler(notificationService, logger)
	leaveHandler := leave.NewHandler(leaveService, rbacService, logger)

	// --- Routes Registration ---
	auth := []gin.HandlerFunc{
		middleware.AuthMiddleware(cfg.Auth.Secret),
		middleware.ExtractUserID(),
		middleware.ContextLogger(logger),
	}
	createGuards := []gin.HandlerFunc{
		middleware.RateLimitByUser(rate.Limit(cfg.Leave.CreateRateLimit), cfg.Leave.CreateRateBurst),
		middleware.Idempotency(in.rdb, logger),
	}

	api := router.Group("/api/v1")
	{
		leave.RegisterRoutes(api, leaveHandler, rbacService, createGuards, auth...)
		user.RegisterRoutes(api, userHandler, rbacService, auth...)
		notification.RegisterRoutes(api, notificationHandler, rbacService, auth...)
		rbac.RegisterRoutes(api, rbacHandler, auth...)
	}

	return nil
}
