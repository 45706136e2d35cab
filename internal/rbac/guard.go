package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/accessd/accessd/internal/auth"
	"github.com/accessd/accessd/internal/observability"
	"github.com/accessd/accessd/internal/platform/httpx"
)

// Guard gates protected operations on the Evaluator. It expects
// auth.Middleware.RequireUser to have run first, so a missing identity
// here is a wiring bug and is still answered with 401, never 403.
type Guard struct {
	Evaluator *Evaluator
	Logger    *slog.Logger
	Metrics   *observability.Metrics
}

// Require authorizes an operation with no ownership context. Only
// blanket ("all") grants pass for read, update and delete; create is
// ownership-free by nature.
func (g Guard) Require(resource string, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := g.Check(r.Context(), resource, action, nil); err != nil {
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Check evaluates the current user against (resource, action, owner)
// and returns ErrUnauthorized or ErrForbidden on failure.
func (g Guard) Check(ctx context.Context, resource string, action Action, ownerID *int64) error {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return fmt.Errorf("%w: not authenticated", httpx.ErrUnauthorized)
	}
	allowed, err := g.Evaluator.Evaluate(ctx, user.ID, resource, action, ownerID)
	if err != nil {
		if g.Logger != nil {
			g.Logger.Error("evaluate permission", slog.String("resource", resource), slog.Any("error", err))
		}
		return err
	}
	if g.Metrics != nil {
		g.Metrics.RecordDecision(resource, string(action), allowed)
	}
	if !allowed {
		return httpx.ErrForbidden
	}
	return nil
}

// Allowed is Check without the error mapping, for endpoints that probe
// both scopes before deciding how to filter a collection.
func (g Guard) Allowed(ctx context.Context, resource string, action Action, ownerID *int64) (bool, error) {
	user := auth.UserFromContext(ctx)
	if user == nil {
		return false, fmt.Errorf("%w: not authenticated", httpx.ErrUnauthorized)
	}
	allowed, err := g.Evaluator.Evaluate(ctx, user.ID, resource, action, ownerID)
	if err != nil {
		return false, err
	}
	if g.Metrics != nil {
		g.Metrics.RecordDecision(resource, string(action), allowed)
	}
	return allowed, nil
}
