package user_test

import (
	"context"
	"testing"

	"github.com/Kyz7/reviewhub/internal/auth"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/testutils"
	"github.com/Kyz7/reviewhub/internal/user"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Creates the first admin once", func(t *testing.T) {
		db := testutils.TestDB(t)

		require.NoError(t, user.SeedAdmin(ctx, db, " Root@Example.com", "password123", zerolog.Nop()))
		require.NoError(t, user.SeedAdmin(ctx, db, "other@example.com", "password123", zerolog.Nop()))

		var admins []models.User
		require.NoError(t, db.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
		require.Len(t, admins, 1)
		assert.Equal(t, "root@example.com", admins[0].Email)
		assert.True(t, admins[0].IsActive)
		assert.True(t, auth.CheckPassword(admins[0].Password, "password123"))
	})

	t.Run("Success - Skipped without credentials", func(t *testing.T) {
		db := testutils.TestDB(t)
		require.NoError(t, user.SeedAdmin(ctx, db, "", "", zerolog.Nop()))

		var count int64
		require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("Error - Weak password", func(t *testing.T) {
		db := testutils.TestDB(t)
		assert.Error(t, user.SeedAdmin(ctx, db, "root@example.com", "short", zerolog.Nop()))
	})
}
