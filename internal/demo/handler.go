// Package demo serves fixture resources that exercise the permission
// matrix end to end: list endpoints show the own-vs-all split and the
// patch endpoint shows an ownership check against a loaded record.
package demo

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/accessd/accessd/internal/auth"
	"github.com/accessd/accessd/internal/platform/httpx"
	"github.com/accessd/accessd/internal/rbac"
)

// Product is a fixture row with an owner.
type Product struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	OwnerID int64  `json:"owner_id"`
}

// Order is a fixture row with an owner.
type Order struct {
	ID      int64  `json:"id"`
	Status  string `json:"status"`
	OwnerID int64  `json:"owner_id"`
}

// Handler serves the demo endpoints.
type Handler struct {
	logger *slog.Logger
	guard  rbac.Guard
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, guard rbac.Guard) *Handler {
	return &Handler{logger: logger, guard: guard}
}

// MountRoutes registers demo routes; authentication is mounted by the caller.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Patch("/products/{productID}", h.patchProduct)
	r.Get("/orders", h.listOrders)
}

// Fixtures are generated around the caller so that every user sees two
// of their own rows and one belonging to a neighbour account.
func buildProducts(currentUserID int64) []Product {
	other := currentUserID + 1
	return []Product{
		{ID: 1, Title: "My product 1", OwnerID: currentUserID},
		{ID: 2, Title: "Alien product", OwnerID: other},
		{ID: 3, Title: "My product 2", OwnerID: currentUserID},
	}
}

func buildOrders(currentUserID int64) []Order {
	other := currentUserID + 1
	return []Order{
		{ID: 101, Status: "new", OwnerID: currentUserID},
		{ID: 102, Status: "paid", OwnerID: other},
		{ID: 103, Status: "shipped", OwnerID: currentUserID},
	}
}

// listScope resolves how much of a collection the caller may see:
// everything with an "all" grant, their own rows with an own-scope
// grant, nothing otherwise.
func (h *Handler) listScope(r *http.Request, resource string) (all bool, own bool, err error) {
	ctx := r.Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		return false, false, httpx.ErrUnauthorized
	}
	all, err = h.guard.Allowed(ctx, resource, rbac.ActionRead, nil)
	if err != nil {
		return false, false, err
	}
	if all {
		return true, false, nil
	}
	own, err = h.guard.Allowed(ctx, resource, rbac.ActionRead, &user.ID)
	if err != nil {
		return false, false, err
	}
	return false, own, nil
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	all, own, err := h.listScope(r, "products")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items := buildProducts(user.ID)
	switch {
	case all:
		httpx.JSON(w, http.StatusOK, items)
	case own:
		mine := make([]Product, 0, len(items))
		for _, item := range items {
			if item.OwnerID == user.ID {
				mine = append(mine, item)
			}
		}
		httpx.JSON(w, http.StatusOK, mine)
	default:
		httpx.RespondError(w, httpx.ErrForbidden)
	}
}

func (h *Handler) patchProduct(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	var found *Product
	items := buildProducts(user.ID)
	for i := range items {
		if items[i].ID == id {
			found = &items[i]
			break
		}
	}
	if found == nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}

	// The ownership check uses the record's owner, not the caller: an
	// own-scope update grant must not reach the neighbour's row.
	if err := h.guard.Check(r.Context(), "products", rbac.ActionUpdate, &found.OwnerID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	found.Title = req.Title
	httpx.JSON(w, http.StatusOK, *found)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	all, own, err := h.listScope(r, "orders")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items := buildOrders(user.ID)
	switch {
	case all:
		httpx.JSON(w, http.StatusOK, items)
	case own:
		mine := make([]Order, 0, len(items))
		for _, item := range items {
			if item.OwnerID == user.ID {
				mine = append(mine, item)
			}
		}
		httpx.JSON(w, http.StatusOK, mine)
	default:
		httpx.RespondError(w, httpx.ErrForbidden)
	}
}
