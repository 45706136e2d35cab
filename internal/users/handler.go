package users

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/accessd/accessd/internal/auth"
	"github.com/accessd/accessd/internal/platform/httpx"
)

// Handler manages the caller's own profile endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers profile routes. The caller must already be
// authenticated; there is no admin view of other users here.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/me", h.getMe)
	r.Patch("/me", h.patchMe)
	r.Delete("/me", h.deleteMe)
}

// ProfileOut is the transport representation of a profile.
type ProfileOut struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type profilePatchRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
}

func newProfileOut(user *User) ProfileOut {
	return ProfileOut{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	current := auth.UserFromContext(r.Context())
	if current == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	user, err := h.service.GetProfile(r.Context(), current.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newProfileOut(user))
}

func (h *Handler) patchMe(w http.ResponseWriter, r *http.Request) {
	current := auth.UserFromContext(r.Context())
	if current == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req profilePatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), current.ID, ProfileUpdate{FullName: req.FullName, Email: req.Email})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newProfileOut(user))
}

func (h *Handler) deleteMe(w http.ResponseWriter, r *http.Request) {
	current := auth.UserFromContext(r.Context())
	if current == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	user, err := h.service.Deactivate(r.Context(), current.ID)
	if err != nil {
		h.logger.Error("deactivate account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newProfileOut(user))
}
