package rbac

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/accessd/accessd/internal/platform/httpx"
)

// Evaluator decides whether a user may perform an action on a resource.
// It holds no mutable state and is safe for concurrent use; every call
// reads the current matrix, so rule changes take effect on the next
// request without invalidation.
type Evaluator struct {
	repo RepositoryPort
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(repo RepositoryPort) *Evaluator {
	return &Evaluator{repo: repo}
}

// Evaluate aggregates the rules of every role the user holds for the
// resource and ORs them per capability axis. ownerID is the owner of
// the specific resource instance, nil for collection or create checks.
// Unknown resource codes and empty role sets are ordinary denials, not
// errors.
func (e *Evaluator) Evaluate(ctx context.Context, userID int64, resource string, action Action, ownerID *int64) (bool, error) {
	var (
		element BusinessElement
		roleIDs []int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		element, err = e.repo.FindElementByCode(gctx, resource)
		return err
	})
	g.Go(func() error {
		var err error
		roleIDs, err = e.repo.ListRoleIDsForUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if len(roleIDs) == 0 {
		return false, nil
	}

	rules, err := e.repo.ListRulesFor(ctx, roleIDs, element.ID)
	if err != nil {
		return false, err
	}

	isOwner := ownerID != nil && *ownerID == userID
	for _, rule := range rules {
		if rule.Allows(action, isOwner) {
			return true, nil
		}
	}
	return false, nil
}
