// Package rating keeps a company's derived rating summary in step with its
// live reviews.
package rating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

// Store is the persistence the engine needs. Company returns an apperr
// NotFound error when the company does not exist. SaveAggregate reports false
// when expectedVersion no longer matches.
type Store interface {
	Company(ctx context.Context, id uint) (models.Company, error)
	LiveRatings(ctx context.Context, companyID uint) (sum, count int64, err error)
	SaveAggregate(ctx context.Context, companyID, expectedVersion uint, average float64, total int) (bool, error)
}

// Locker serializes recomputes of the same company.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type Summary struct {
	CompanyID uint    `json:"company_id"`
	Average   float64 `json:"ratings_aggregate"`
	Total     int     `json:"total_reviews"`
}

type Engine struct {
	store    Store
	locker   Locker
	log      zerolog.Logger
	attempts int
	wait     time.Duration
}

func NewEngine(store Store, locker Locker, log zerolog.Logger, attempts int) *Engine {
	if attempts < 1 {
		attempts = 1
	}
	return &Engine{store: store, locker: locker, log: log, attempts: attempts, wait: 2 * time.Millisecond}
}

// Recompute rebuilds the summary from the full live review population and
// writes it with a compare-and-swap on the company version. It is safe to
// call any number of times.
func (e *Engine) Recompute(ctx context.Context, companyID uint) (Summary, error) {
	unlock, err := e.locker.Lock(ctx, lockKey(companyID))
	if err != nil {
		return Summary{}, fmt.Errorf("lock company %d: %w", companyID, err)
	}
	defer unlock()

	var summary Summary
	backoff := retry.WithMaxRetries(uint64(e.attempts-1), retry.NewConstant(e.wait))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		company, err := e.store.Company(ctx, companyID)
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Consistency("company %d no longer exists", companyID)
		}
		if err != nil {
			return fmt.Errorf("load company %d: %w", companyID, err)
		}

		sum, count, err := e.store.LiveRatings(ctx, companyID)
		if err != nil {
			return fmt.Errorf("aggregate reviews of company %d: %w", companyID, err)
		}

		avg := Mean(sum, count)
		saved, err := e.store.SaveAggregate(ctx, companyID, company.Version, avg, int(count))
		if err != nil {
			return fmt.Errorf("save aggregate of company %d: %w", companyID, err)
		}
		if !saved {
			e.log.Debug().Uint("company_id", companyID).Uint("version", company.Version).Msg("aggregate write lost a race, retrying")
			return retry.RetryableError(apperr.Conflict("company %d changed during recompute", companyID))
		}

		summary = Summary{CompanyID: companyID, Average: avg, Total: int(count)}
		return nil
	})
	if errors.Is(err, apperr.ErrConcurrencyConflict) {
		e.log.Warn().Uint("company_id", companyID).Int("attempts", e.attempts).Msg("recompute gave up")
		return Summary{}, apperr.Conflict("company %d: recompute gave up after %d attempts", companyID, e.attempts)
	}
	if err != nil {
		return Summary{}, err
	}

	e.log.Debug().
		Uint("company_id", companyID).
		Float64("average", summary.Average).
		Int("total", summary.Total).
		Msg("rating aggregate recomputed")
	return summary, nil
}

// Mean is the arithmetic mean rounded half away from zero to one decimal.
// An empty population has mean 0.
func Mean(sum, count int64) float64 {
	if count == 0 {
		return 0
	}
	f, _ := decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)).Round(1).Float64()
	return f
}

func lockKey(companyID uint) string {
	return fmt.Sprintf("company:%d", companyID)
}
