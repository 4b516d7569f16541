package permission_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/Kyz7/reviewhub/internal/permission"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	trees map[uint]permission.Tree
	err   error
	loads int
}

func (f *fakeStore) LoadTree(_ context.Context, id uint) (permission.Tree, bool, error) {
	f.loads++
	if f.err != nil {
		return nil, false, f.err
	}
	tree, ok := f.trees[id]
	return tree, ok, nil
}

func newEvaluator(store *fakeStore) *permission.Evaluator {
	return permission.NewEvaluator(store, zerolog.Nop())
}

var operator = identity.Identity{ID: 10, Role: models.RoleOperator, IsActive: true}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	admins := []models.Role{models.RoleAdmin}

	t.Run("Success - Falls through to a later path", func(t *testing.T) {
		store := &fakeStore{trees: map[uint]permission.Tree{
			operator.ID: {
				permission.Common(permission.ModuleCompany):   {Create: true},
				permission.Specific(permission.ModuleCompany): {Read: true},
			},
		}}

		d, err := newEvaluator(store).Evaluate(ctx, operator,
			[]string{"commonPermissions.company", "specific.company"},
			[]permission.Capability{permission.Read}, admins)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, permission.Specific(permission.ModuleCompany), d.Path)
	})

	t.Run("Success - First satisfying path wins", func(t *testing.T) {
		store := &fakeStore{trees: map[uint]permission.Tree{
			operator.ID: {
				permission.Common(permission.ModuleCompany):   permission.Full(),
				permission.Specific(permission.ModuleCompany): permission.Full(),
			},
		}}

		d, err := newEvaluator(store).Evaluate(ctx, operator,
			[]string{"company", "specific.company"},
			[]permission.Capability{permission.Read}, nil)
		require.NoError(t, err)
		assert.Equal(t, permission.Common(permission.ModuleCompany), d.Path)
	})

	t.Run("Error - Capabilities are not combined across paths", func(t *testing.T) {
		store := &fakeStore{trees: map[uint]permission.Tree{
			operator.ID: {
				permission.Common(permission.ModuleReview):   {Read: true},
				permission.Specific(permission.ModuleReview): {Update: true},
			},
		}}

		d, err := newEvaluator(store).Evaluate(ctx, operator,
			[]string{"review", "specific.review"},
			[]permission.Capability{permission.Read, permission.Update}, admins)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, permission.ReasonNotAuthorized, d.Reason)
	})

	t.Run("Success - Bypass role skips the tree", func(t *testing.T) {
		store := &fakeStore{}
		admin := identity.Identity{ID: 1, Role: models.RoleAdmin, IsActive: true}

		d, err := newEvaluator(store).Evaluate(ctx, admin,
			[]string{"company"}, []permission.Capability{permission.Delete}, admins)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 0, store.loads)
	})

	t.Run("Error - Admin without bypass and without tree is denied", func(t *testing.T) {
		admin := identity.Identity{ID: 1, Role: models.RoleAdmin, IsActive: true}

		d, err := newEvaluator(&fakeStore{}).Evaluate(ctx, admin,
			[]string{"company"}, []permission.Capability{permission.Read}, nil)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, permission.ReasonNoPermissions, d.Reason)
	})

	t.Run("Error - Empty tree is not a missing tree", func(t *testing.T) {
		store := &fakeStore{trees: map[uint]permission.Tree{operator.ID: {}}}

		d, err := newEvaluator(store).Evaluate(ctx, operator,
			[]string{"company"}, []permission.Capability{permission.Read}, nil)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, permission.ReasonNotAuthorized, d.Reason)
	})

	t.Run("Success - Unresolvable candidates are skipped", func(t *testing.T) {
		store := &fakeStore{trees: map[uint]permission.Tree{
			operator.ID: {permission.Common(permission.ModuleBlog): {Read: true}},
		}}

		d, err := newEvaluator(store).Evaluate(ctx, operator,
			[]string{"specific.nothing", "specific.blog", "blog"},
			[]permission.Capability{permission.Read}, nil)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("Error - Storage failure is not a deny", func(t *testing.T) {
		boom := errors.New("connection reset")
		_, err := newEvaluator(&fakeStore{err: boom}).Evaluate(ctx, operator,
			[]string{"company"}, []permission.Capability{permission.Read}, nil)
		assert.ErrorIs(t, err, boom)
		_, isDomain := apperr.KindOf(err)
		assert.False(t, isDomain)
	})
}

func TestAuthorize(t *testing.T) {
	err := newEvaluator(&fakeStore{}).Authorize(context.Background(), operator,
		[]string{"company"}, []permission.Capability{permission.Read}, nil)
	assert.True(t, errors.Is(err, apperr.ErrPermissionDenied))
}
