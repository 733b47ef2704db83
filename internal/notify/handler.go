package notify

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/identity"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/platform/httpx"
)

// Handler manages notification HTTP endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/{id}/read", h.markRead)
}

// list serves the caller's notifications. Notification reads are
// non-critical: on failure the client keeps whatever it had, so this
// degrades to an empty list instead of erroring.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.UserFromContext(r.Context())

	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}

	items, err := h.service.List(r.Context(), user.ID, limit)
	if err != nil {
		h.logger.Warn("list notifications", slog.Any("error", err))
		items = nil
	}
	if items == nil {
		items = []Notification{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"notifications": items})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.UserFromContext(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid notification id")
		return
	}

	if err := h.service.MarkRead(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("mark notification read", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUpstream)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": string(StatusRead)})
}
