// Package viewtrack counts each viewer of a blog at most once.
package viewtrack

import (
	"context"
	"strings"
	"time"

	"github.com/Kyz7/reviewhub/internal/apperr"
)

type Result struct {
	NewView    bool `json:"new_view"`
	TotalViews int  `json:"total_views"`
}

// Ledger adds viewer to a blog's viewed-by set and bumps the counter in one
// atomic step. newView is false when viewer was already in the set, in which
// case nothing is written.
type Ledger interface {
	Register(ctx context.Context, blogID uint, viewer string, at time.Time) (newView bool, total int, err error)
}

type Tracker struct {
	ledger Ledger
	now    func() time.Time
}

func NewTracker(ledger Ledger, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{ledger: ledger, now: now}
}

// RecordView registers viewer, an opaque key derived by the transport layer
// (see identity.ViewerKey and identity.AnonymousViewerKey).
func (t *Tracker) RecordView(ctx context.Context, blogID uint, viewer string) (Result, error) {
	viewer = strings.TrimSpace(viewer)
	if viewer == "" {
		return Result{}, apperr.Invalid("viewer identifier is required", nil)
	}
	if len(viewer) > maxIdentifierLen {
		return Result{}, apperr.Invalid("viewer identifier is too long", map[string]int{"max": maxIdentifierLen})
	}

	isNew, total, err := t.ledger.Register(ctx, blogID, viewer, t.now())
	if err != nil {
		return Result{}, err
	}
	return Result{NewView: isNew, TotalViews: total}, nil
}

const maxIdentifierLen = 128
