package rbac

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/accessd/accessd/internal/platform/httpx"
)

// Handler exposes the RBAC administration API. Every route is guarded
// by the matrix it manages, so bootstrapping requires a seeded admin.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     Guard
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard Guard) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.With(h.guard.Require(ResourceRoles, ActionRead)).Get("/roles", h.listRoles)
		r.With(h.guard.Require(ResourceRoles, ActionCreate)).Post("/roles", h.createRole)
		r.With(h.guard.Require(ResourceRoles, ActionRead)).Get("/roles/{roleID}", h.getRole)
		r.With(h.guard.Require(ResourceRoles, ActionUpdate)).Patch("/roles/{roleID}", h.renameRole)
		r.With(h.guard.Require(ResourceRoles, ActionDelete)).Delete("/roles/{roleID}", h.deleteRole)
	})

	r.Group(func(r chi.Router) {
		r.With(h.guard.Require(ResourceRules, ActionRead)).Get("/elements", h.listElements)
		r.With(h.guard.Require(ResourceRules, ActionCreate)).Post("/elements", h.createElement)
		r.With(h.guard.Require(ResourceRules, ActionRead)).Get("/elements/{elementID}", h.getElement)
		r.With(h.guard.Require(ResourceRules, ActionUpdate)).Patch("/elements/{elementID}", h.updateElement)
		r.With(h.guard.Require(ResourceRules, ActionDelete)).Delete("/elements/{elementID}", h.deleteElement)

		r.With(h.guard.Require(ResourceRules, ActionRead)).Get("/rules", h.listRules)
		r.With(h.guard.Require(ResourceRules, ActionRead)).Get("/rules/{ruleID}", h.getRule)
		r.With(h.guard.Require(ResourceRules, ActionUpdate)).Put("/rules", h.upsertRule)
	})

	r.Group(func(r chi.Router) {
		r.With(h.guard.Require(ResourceUserRoles, ActionRead)).Get("/users/{userID}/roles", h.listUserRoles)
		r.With(h.guard.Require(ResourceUserRoles, ActionCreate)).Post("/users/{userID}/roles/{roleID}", h.assignRole)
		r.With(h.guard.Require(ResourceUserRoles, ActionDelete)).Delete("/users/{userID}/roles/{roleID}", h.unassignRole)
	})
}

type roleRequest struct {
	Name string `json:"name" validate:"required,min=1"`
}

// RoleOut is the transport representation of a role.
type RoleOut struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type elementCreateRequest struct {
	Code  string  `json:"code" validate:"required,min=1"`
	Title *string `json:"title"`
}

type elementUpdateRequest struct {
	Title *string `json:"title"`
}

// ElementOut is the transport representation of a business element.
type ElementOut struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Title     *string   `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type ruleUpsertRequest struct {
	RoleID    int64 `json:"role_id" validate:"required"`
	ElementID int64 `json:"element_id" validate:"required"`

	ReadPermission    bool `json:"read_permission"`
	ReadAllPermission bool `json:"read_all_permission"`

	CreatePermission bool `json:"create_permission"`

	UpdatePermission    bool `json:"update_permission"`
	UpdateAllPermission bool `json:"update_all_permission"`

	DeletePermission    bool `json:"delete_permission"`
	DeleteAllPermission bool `json:"delete_all_permission"`
}

// RuleOut is the transport representation of an access rule.
type RuleOut struct {
	ID        int64 `json:"id"`
	RoleID    int64 `json:"role_id"`
	ElementID int64 `json:"element_id"`

	ReadPermission    bool `json:"read_permission"`
	ReadAllPermission bool `json:"read_all_permission"`

	CreatePermission bool `json:"create_permission"`

	UpdatePermission    bool `json:"update_permission"`
	UpdateAllPermission bool `json:"update_all_permission"`

	DeletePermission    bool `json:"delete_permission"`
	DeleteAllPermission bool `json:"delete_all_permission"`
}

func newRoleOut(role Role) RoleOut {
	return RoleOut{ID: role.ID, Name: role.Name, CreatedAt: role.CreatedAt}
}

func newElementOut(element BusinessElement) ElementOut {
	return ElementOut{ID: element.ID, Code: element.Code, Title: element.Title, CreatedAt: element.CreatedAt}
}

func newRuleOut(rule AccessRule) RuleOut {
	return RuleOut{
		ID:                  rule.ID,
		RoleID:              rule.RoleID,
		ElementID:           rule.ElementID,
		ReadPermission:      rule.Read,
		ReadAllPermission:   rule.ReadAll,
		CreatePermission:    rule.Create,
		UpdatePermission:    rule.Update,
		UpdateAllPermission: rule.UpdateAll,
		DeletePermission:    rule.Delete,
		DeleteAllPermission: rule.DeleteAll,
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]RoleOut, 0, len(roles))
	for _, role := range roles {
		out = append(out, newRoleOut(role))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newRoleOut(role))
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "roleID")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newRoleOut(role))
}

func (h *Handler) renameRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "roleID")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.RenameRole(r.Context(), id, req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newRoleOut(role))
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "roleID")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listElements(w http.ResponseWriter, r *http.Request) {
	elements, err := h.service.ListElements(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]ElementOut, 0, len(elements))
	for _, element := range elements {
		out = append(out, newElementOut(element))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createElement(w http.ResponseWriter, r *http.Request) {
	var req elementCreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	element, err := h.service.CreateElement(r.Context(), req.Code, req.Title)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newElementOut(element))
}

func (h *Handler) getElement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "elementID")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	element, err := h.service.GetElement(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newElementOut(element))
}

func (h *Handler) updateElement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "elementID")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req elementUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	element, err := h.service.UpdateElement(r.Context(), id, req.Title)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newElementOut(element))
}

func (h *Handler) deleteElement(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "elementID")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.DeleteElement(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	var filter RuleFilter
	if raw := r.URL.Query().Get("role_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		filter.RoleID = &id
	}
	if raw := r.URL.Query().Get("element_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		filter.ElementID = &id
	}
	rules, err := h.service.ListRules(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]RuleOut, 0, len(rules))
	for _, rule := range rules {
		out = append(out, newRuleOut(rule))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) getRule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "ruleID")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	rule, err := h.service.GetRule(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newRuleOut(rule))
}

func (h *Handler) upsertRule(w http.ResponseWriter, r *http.Request) {
	var req ruleUpsertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	rule, err := h.service.UpsertRule(r.Context(), req.RoleID, req.ElementID, RuleFlags{
		Read:      req.ReadPermission,
		ReadAll:   req.ReadAllPermission,
		Create:    req.CreatePermission,
		Update:    req.UpdatePermission,
		UpdateAll: req.UpdateAllPermission,
		Delete:    req.DeletePermission,
		DeleteAll: req.DeleteAllPermission,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newRuleOut(rule))
}

func (h *Handler) listUserRoles(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userID")
	if !ok {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	roles, err := h.service.ListUserRoles(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]RoleOut, 0, len(roles))
	for _, role := range roles {
		out = append(out, newRoleOut(role))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, okUser := pathID(r, "userID")
	roleID, okRole := pathID(r, "roleID")
	if !okUser || !okRole {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.AssignRole(r.Context(), userID, roleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) unassignRole(w http.ResponseWriter, r *http.Request) {
	userID, okUser := pathID(r, "userID")
	roleID, okRole := pathID(r, "roleID")
	if !okUser || !okRole {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.UnassignRole(r.Context(), userID, roleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
