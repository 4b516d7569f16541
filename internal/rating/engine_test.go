package rating

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	company   *models.Company
	ratings   []int64
	loses     int
	failWith  error
	saves     int
	attempts  int
	lastAvg   float64
	lastTotal int
}

func (f *fakeStore) Company(_ context.Context, id uint) (models.Company, error) {
	f.attempts++
	if f.company == nil {
		return models.Company{}, apperr.NotFoundf("company %d", id)
	}
	return *f.company, nil
}

func (f *fakeStore) LiveRatings(context.Context, uint) (int64, int64, error) {
	if f.failWith != nil {
		return 0, 0, f.failWith
	}
	var sum int64
	for _, r := range f.ratings {
		sum += r
	}
	return sum, int64(len(f.ratings)), nil
}

func (f *fakeStore) SaveAggregate(_ context.Context, _ uint, expected uint, avg float64, total int) (bool, error) {
	if f.loses > 0 {
		f.loses--
		f.company.Version++
		return false, nil
	}
	if expected != f.company.Version {
		return false, nil
	}
	f.saves++
	f.company.Version++
	f.company.RatingsAggregate = avg
	f.company.TotalReviews = total
	f.lastAvg, f.lastTotal = avg, total
	return true, nil
}

func newTestEngine(store Store, attempts int) *Engine {
	e := NewEngine(store, NewLocalLocker(), zerolog.Nop(), attempts)
	e.wait = time.Microsecond
	return e
}

func TestMean(t *testing.T) {
	cases := []struct {
		name       string
		sum, count int64
		want       float64
	}{
		{"empty population", 0, 0, 0},
		{"exact", 12, 3, 4.0},
		{"round down", 13, 3, 4.3},
		{"half rounds away from zero", 17, 4, 4.3},
		{"two reviews", 9, 2, 4.5},
		{"three decimals", 29, 8, 3.6},
		{"single", 1, 1, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Mean(tc.sum, tc.count))
		})
	}
}

func TestRecompute(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Writes mean and count", func(t *testing.T) {
		store := &fakeStore{company: &models.Company{ID: 1}, ratings: []int64{4, 5, 3}}

		summary, err := newTestEngine(store, 3).Recompute(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, Summary{CompanyID: 1, Average: 4.0, Total: 3}, summary)
		assert.Equal(t, 4.0, store.company.RatingsAggregate)
		assert.Equal(t, 3, store.company.TotalReviews)
	})

	t.Run("Success - Empty population persists zeros", func(t *testing.T) {
		store := &fakeStore{company: &models.Company{ID: 1, RatingsAggregate: 3.2, TotalReviews: 7}}

		summary, err := newTestEngine(store, 3).Recompute(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0.0, summary.Average)
		assert.Equal(t, 0, summary.Total)
		assert.Equal(t, 1, store.saves)
	})

	t.Run("Success - Repeating yields the same values", func(t *testing.T) {
		store := &fakeStore{company: &models.Company{ID: 1}, ratings: []int64{2, 5}}
		engine := newTestEngine(store, 3)

		first, err := engine.Recompute(ctx, 1)
		require.NoError(t, err)
		second, err := engine.Recompute(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, 3.5, store.company.RatingsAggregate)
	})

	t.Run("Success - Retries a lost version race", func(t *testing.T) {
		store := &fakeStore{company: &models.Company{ID: 1}, ratings: []int64{5}, loses: 2}

		summary, err := newTestEngine(store, 5).Recompute(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 5.0, summary.Average)
		assert.Equal(t, 3, store.attempts)
		assert.Equal(t, 1, store.saves)
	})

	t.Run("Error - Gives up after bounded attempts", func(t *testing.T) {
		store := &fakeStore{company: &models.Company{ID: 1}, ratings: []int64{5}, loses: 100}

		_, err := newTestEngine(store, 3).Recompute(ctx, 1)
		assert.True(t, errors.Is(err, apperr.ErrConcurrencyConflict))
		assert.Equal(t, 3, store.attempts)
		assert.Equal(t, 0, store.saves)
	})

	t.Run("Error - Missing company is a consistency error", func(t *testing.T) {
		store := &fakeStore{}

		_, err := newTestEngine(store, 3).Recompute(ctx, 42)
		assert.True(t, errors.Is(err, apperr.ErrConsistency))
		assert.Equal(t, 1, store.attempts)
		assert.Equal(t, 0, store.saves)
	})

	t.Run("Error - Storage failure propagates", func(t *testing.T) {
		boom := errors.New("disk on fire")
		store := &fakeStore{company: &models.Company{ID: 1}, failWith: boom}

		_, err := newTestEngine(store, 3).Recompute(ctx, 1)
		assert.ErrorIs(t, err, boom)
		_, isDomain := apperr.KindOf(err)
		assert.False(t, isDomain)
	})
}
