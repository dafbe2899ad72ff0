package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"go-lms/internal/config"
	"go-lms/internal/leave"
	"go-lms/internal/messaging/kafka"
	"go-lms/internal/middleware"
	"go-lms/internal/notification"
	"go-lms/internal/shared/cache"
	"go-lms/internal/shared/connection"
	"go-lms/internal/shared/database"
	"go-lms/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// resources holds the shared connections of one process.
type resources struct {
	gormDB *gorm.DB
	sqlDB  *sql.DB
	rdb    *redis.Client
}

func (i *resources) Close() error {
	var errs error
	if i.rdb != nil {
		errs = multierr.Append(errs, i.rdb.Close())
	}
	if i.sqlDB != nil {
		errs = multierr.Append(errs, i.sqlDB.Close())
	}
	return errs
}

func connectInfra(cfg *config.Config, withRedis bool, logger *zap.Logger) (*resources, error) {
	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	in := &resources{gormDB: gormDB, sqlDB: sqlDB}
	if !withRedis {
		return in, nil
	}

	rdb, err := connection.ConnectRedisWithRetry(cfg.Redis, cfg.Database.MaxRetries)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	logger.Info("redis connection established")
	in.rdb = rdb

	return in, nil
}

// newDispatcher picks outbox (Kafka) or direct delivery from NOTIFICATION_DELIVERY.
func newDispatcher(cfg *config.Config, in *resources, notificationService notification.Service, logger *zap.Logger) notification.Dispatcher {
	if cfg.Notification.Delivery == config.DeliveryDirect {
		return notification.NewDirectDispatcher(notificationService, logger)
	}
	return notification.NewOutboxDispatcher(in.sqlDB, kafka.NewOutboxRepository(in.sqlDB), logger)
}

func newLeaveService(cfg *config.Config, in *resources, logger *zap.Logger) (leave.Service, error) {
	loc, err := cfg.Leave.Location()
	if err != nil {
		return nil, err
	}

	var store cache.Store = cache.NewNoopStore()
	if in.rdb != nil {
		store = cache.NewRedisStore(in.rdb)
	}

	notificationService := notification.NewService(notification.NewRepository(in.gormDB), logger)

	return leave.NewService(
		in.sqlDB,
		leave.NewRepository(in.gormDB),
		user.NewRepository(in.gormDB),
		store,
		newDispatcher(cfg, in, notificationService, logger),
		leave.WithLocation(loc),
		leave.WithLogger(logger),
	), nil
}

const (
	probeRateLimit = 5
	probeRateBurst = 20
)

// registerProbes mounts the unauthenticated health and metrics routes behind a per-IP limit.
func registerProbes(router *gin.Engine, ping func(ctx context.Context) error) {
	probes := router.Group("", middleware.RateLimitByIP(probeRateLimit, probeRateBurst))
	probes.GET("/metrics", gin.WrapH(promhttp.Handler()))
	probes.GET("/healthz", func(c *gin.Context) {
		if err := ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// BuildApp connects the API dependencies, applies migrations and mounts every route.
// The returned cleanup closes the connections.
func BuildApp(cfg *config.Config, router *gin.Engine, logger *zap.Logger) (func(), error) {
	in, err := connectInfra(cfg, true, logger)
	if err != nil {
		return nil, err
	}
	cleanup := func() {
		if err := in.Close(); err != nil {
			logger.Warn("close connections failed", zap.Error(err))
		}
	}

	if cfg.Database.Migrate {
		if err := database.RunMigrations(in.sqlDB, logger); err != nil {
			cleanup()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	router.Use(
		middleware.RequestID(),
		middleware.Metrics(),
	)
	registerProbes(router, in.sqlDB.PingContext)

	if err := registerModules(router, cfg, in, logger); err != nil {
		cleanup()
		return nil, err
	}

	return cleanup, nil
}
