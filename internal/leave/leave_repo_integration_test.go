//go:build integration

package leave_test

import (
	"context"
	"testing"

	"go-lms/internal/config"
	"go-lms/internal/leave"
	"go-lms/internal/shared/connection"
	"go-lms/internal/shared/database"
	"go-lms/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Runs against DB_* from the environment: go test -tags integration ./internal/leave/...
func openIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Database.MaxRetries = 1

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database)
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(sqlDB, zap.NewNop()))

	t.Cleanup(func() { sqlDB.Close() })
	return gormDB
}

func seedUser(t *testing.T, db *gorm.DB) user.User {
	t.Helper()

	u := user.User{
		Name:  "Integration Student",
		Email: uuid.NewString() + "@campus.test",
		Role:  user.RoleStudent,
	}
	require.NoError(t, db.Create(&u).Error)
	t.Cleanup(func() {
		db.Exec("DELETE FROM leaves WHERE user_id = ?", u.ID)
		db.Unscoped().Delete(&u)
	})
	return u
}

func TestRepositoryIntegration(t *testing.T) {
	db := openIntegrationDB(t)
	repo := leave.NewRepository(db)
	ctx := context.Background()
	u := seedUser(t, db)

	kitchen := newLeave(t, u.ID, leave.TypeKitchenLeave, leave.StatusApproved, "2025-02-10", "2025-02-10")
	onLeave := newLeave(t, u.ID, leave.TypeOnLeave, leave.StatusPending, "2025-03-01", "2025-03-05")
	for _, l := range []*leave.Leave{&kitchen, &onLeave} {
		l.UserEmail = u.Email
		require.NoError(t, repo.Create(ctx, l))
	}

	t.Run("find by user newest first", func(t *testing.T) {
		got, err := repo.FindByUser(ctx, u.ID.String())
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, onLeave.ID, got[0].ID)
		assert.True(t, got[1].StartDate.Equal(day(t, "2025-02-10")))
	})

	t.Run("find approved by type", func(t *testing.T) {
		got, err := repo.FindApproved(ctx, leave.TypeKitchenLeave)
		require.NoError(t, err)

		var ids []uuid.UUID
		for _, l := range got {
			ids = append(ids, l.ID)
		}
		assert.Contains(t, ids, kitchen.ID)
		assert.NotContains(t, ids, onLeave.ID)
	})

	t.Run("lock and update inside tx", func(t *testing.T) {
		sqlDB, err := db.DB()
		require.NoError(t, err)

		tx, err := sqlDB.BeginTx(ctx, nil)
		require.NoError(t, err)
		defer tx.Rollback()

		txRepo := repo.WithTx(tx)
		locked, err := txRepo.FindByIDForUpdate(ctx, onLeave.ID.String())
		require.NoError(t, err)

		locked.Status = leave.StatusRejected
		require.NoError(t, txRepo.Update(ctx, locked))
		require.NoError(t, tx.Commit())

		stored, err := repo.FindByID(ctx, onLeave.ID.String())
		require.NoError(t, err)
		assert.Equal(t, leave.StatusRejected, stored.Status)
	})

	t.Run("kitchen leave spanning days is rejected by the schema", func(t *testing.T) {
		bad := newLeave(t, u.ID, leave.TypeKitchenLeave, leave.StatusPending, "2025-04-01", "2025-04-02")
		bad.UserEmail = u.Email
		assert.Error(t, repo.Create(ctx, &bad))
	})

	t.Run("malformed id is not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}
