package recommend

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/catalog"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/identity"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/platform/httpx"
)

// Handler manages recommended load HTTP endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers routes on the router. Both endpoints are LSR-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(identity.RequireRole(identity.RoleLSR))
	r.Get("/", h.fetch)
	r.Post("/build", h.build)
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.UserFromContext(r.Context())

	load, err := h.service.Fetch(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if load.Load == nil {
		load.Load = []LoadLine{}
	}
	httpx.JSON(w, http.StatusOK, load)
}

func (h *Handler) build(w http.ResponseWriter, r *http.Request) {
	user, _ := identity.UserFromContext(r.Context())

	var req BuildRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}

	result, err := h.service.Build(r.Context(), user.ID, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrUnknownLine):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrDuplicateItem):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrNoTruck), errors.Is(err, catalog.ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	default:
		h.logger.Error("recommended load operation failed", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUpstream)
	}
}
