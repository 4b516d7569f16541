package company_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/company"
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/rating"
	"github.com/Kyz7/reviewhub/internal/testutils"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*gorm.DB, *company.Service) {
	db := testutils.TestDB(t)
	engine := rating.NewEngine(rating.NewGormStore(db), rating.NewLocalLocker(), zerolog.Nop(), 3)
	return db, company.NewService(db, engine, zerolog.Nop())
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	admin := identity.FromUser(*testutils.CreateTestUser(t, db, "admin@example.com", "password123", models.RoleAdmin))
	operator := testutils.CreateTestUser(t, db, "operator@example.com", "password123", models.RoleOperator)
	plain := testutils.CreateTestUser(t, db, "user@example.com", "password123", models.RoleUser)

	t.Run("Success - Operator owns what they create", func(t *testing.T) {
		c, err := svc.Create(ctx, identity.FromUser(*operator), company.CreateInput{Name: "  Acme  ", OperatorID: plain.ID})
		require.NoError(t, err)
		assert.Equal(t, "Acme", c.Name)
		assert.Equal(t, operator.ID, c.OperatorID)
		assert.Equal(t, models.CompanyPending, c.Status)
		assert.Zero(t, c.TotalReviews)
	})

	t.Run("Success - Admin assigns an operator", func(t *testing.T) {
		c, err := svc.Create(ctx, admin, company.CreateInput{Name: "Globex", OperatorID: operator.ID})
		require.NoError(t, err)
		assert.Equal(t, operator.ID, c.OperatorID)
	})

	t.Run("Error - Assigned user is not an operator", func(t *testing.T) {
		_, err := svc.Create(ctx, admin, company.CreateInput{Name: "Initech", OperatorID: plain.ID})
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})

	t.Run("Error - Name required", func(t *testing.T) {
		_, err := svc.Create(ctx, admin, company.CreateInput{Name: "<b></b>"})
		var ae *apperr.Error
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, apperr.KindValidation, ae.Kind)
		assert.Contains(t, ae.Details, "name")
	})
}

func TestVisibility(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	admin := identity.FromUser(*testutils.CreateTestUser(t, db, "admin@example.com", "password123", models.RoleAdmin))
	approved := testutils.CreateTestCompany(t, db, 0, models.CompanyApproved)
	pending := testutils.CreateTestCompany(t, db, 0, models.CompanyPending)

	t.Run("Success - Anonymous sees approved companies", func(t *testing.T) {
		c, err := svc.Get(ctx, identity.Identity{}, approved.ID)
		require.NoError(t, err)
		assert.Equal(t, approved.ID, c.ID)

		list, total, err := svc.List(ctx, identity.Identity{}, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, list, 1)
	})

	t.Run("Error - Pending company is hidden from the public", func(t *testing.T) {
		_, err := svc.Get(ctx, identity.Identity{}, pending.ID)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("Success - Admin sees pending companies", func(t *testing.T) {
		_, err := svc.Get(ctx, admin, pending.ID)
		require.NoError(t, err)

		_, total, err := svc.List(ctx, admin, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	admin := identity.FromUser(*testutils.CreateTestUser(t, db, "admin@example.com", "password123", models.RoleAdmin))
	operator := identity.FromUser(*testutils.CreateTestUser(t, db, "operator@example.com", "password123", models.RoleOperator))

	t.Run("Success - Pending to rejected to approved", func(t *testing.T) {
		c := testutils.CreateTestCompany(t, db, 0, models.CompanyPending)

		out, err := svc.SetStatus(ctx, admin, c.ID, models.CompanyRejected)
		require.NoError(t, err)
		assert.Equal(t, models.CompanyRejected, out.Status)

		out, err = svc.SetStatus(ctx, admin, c.ID, models.CompanyApproved)
		require.NoError(t, err)
		assert.Equal(t, models.CompanyApproved, out.Status)
		assert.Equal(t, uint(2), out.Version)
	})

	t.Run("Error - Approved is final", func(t *testing.T) {
		c := testutils.CreateTestCompany(t, db, 0, models.CompanyApproved)
		_, err := svc.SetStatus(ctx, admin, c.ID, models.CompanyPending)
		assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))
	})

	t.Run("Error - Operators cannot decide", func(t *testing.T) {
		c := testutils.CreateTestCompany(t, db, operator.ID, models.CompanyPending)
		_, err := svc.SetStatus(ctx, operator, c.ID, models.CompanyApproved)
		assert.True(t, errors.Is(err, apperr.ErrPermissionDenied))
	})

	t.Run("Error - Unknown company", func(t *testing.T) {
		_, err := svc.SetStatus(ctx, admin, 9999, models.CompanyApproved)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})
}

func TestRecompute(t *testing.T) {
	ctx := context.Background()
	db, svc := setup(t)
	admin := identity.FromUser(*testutils.CreateTestUser(t, db, "admin@example.com", "password123", models.RoleAdmin))
	u := testutils.CreateTestUser(t, db, "user@example.com", "password123", models.RoleUser)
	c := testutils.CreateTestCompany(t, db, 0, models.CompanyApproved)
	testutils.CreateTestReview(t, db, c.ID, u.ID, 4)
	testutils.CreateTestReview(t, db, c.ID, admin.ID, 1)

	t.Run("Success - Repairs a drifted aggregate", func(t *testing.T) {
		sum, err := svc.Recompute(ctx, admin, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 2.5, sum.Average)
		assert.Equal(t, 2, sum.Total)
	})

	t.Run("Error - Users cannot trigger", func(t *testing.T) {
		_, err := svc.Recompute(ctx, identity.FromUser(*u), c.ID)
		assert.True(t, errors.Is(err, apperr.ErrPermissionDenied))
	})

	t.Run("Error - Unknown company", func(t *testing.T) {
		_, err := svc.Recompute(ctx, admin, 9999)
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})
}
