package permission

import (
	"context"
	"fmt"

	"github.com/Kyz7/reviewhub/internal/apperr"
	"github.com/Kyz7/reviewhub/internal/identity"
	"github.com/Kyz7/reviewhub/internal/models"
	"github.com/rs/zerolog"
)

const (
	ReasonBypass        = "bypass role"
	ReasonNoPermissions = "no permissions configured"
	ReasonNotAuthorized = "not authorized"
)

// TreeStore loads a principal's permission tree. found is false when the
// principal has no tree at all, which is distinct from an empty tree.
type TreeStore interface {
	LoadTree(ctx context.Context, principalID uint) (tree Tree, found bool, err error)
}

type Decision struct {
	Allowed bool
	Reason  string
	// Path is the module path that satisfied the check, when one did.
	Path ModulePath
}

type Evaluator struct {
	store TreeStore
	log   zerolog.Logger
}

func NewEvaluator(store TreeStore, log zerolog.Logger) *Evaluator {
	return &Evaluator{store: store, log: log}
}

// Evaluate checks paths in the given order and allows on the first path whose
// leaf grants every required capability. Capabilities are never combined
// across paths. A bypass role is allowed without reading the tree.
func (e *Evaluator) Evaluate(ctx context.Context, id identity.Identity, paths []string, required []Capability, bypass []models.Role) (Decision, error) {
	if id.Role != "" && id.Is(bypass...) {
		return Decision{Allowed: true, Reason: ReasonBypass}, nil
	}

	tree, found, err := e.store.LoadTree(ctx, id.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("load permission tree for principal %d: %w", id.ID, err)
	}
	if !found {
		return Decision{Reason: ReasonNoPermissions}, nil
	}

	for _, raw := range paths {
		path, ok := ParsePath(raw)
		if !ok {
			continue
		}
		caps, ok := tree[path]
		if !ok {
			continue
		}
		if caps.HasAll(required) {
			return Decision{Allowed: true, Path: path}, nil
		}
	}

	e.log.Debug().
		Uint("principal_id", id.ID).
		Strs("paths", paths).
		Interface("required", required).
		Msg("permission denied")
	return Decision{Reason: ReasonNotAuthorized}, nil
}

// Authorize is Evaluate with a deny turned into a PermissionDenied error.
func (e *Evaluator) Authorize(ctx context.Context, id identity.Identity, paths []string, required []Capability, bypass []models.Role) error {
	d, err := e.Evaluate(ctx, id, paths, required, bypass)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return apperr.Denied(d.Reason)
	}
	return nil
}
