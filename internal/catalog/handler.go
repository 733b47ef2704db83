package catalog

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/platform/httpx"
)

// Handler manages catalog HTTP endpoints.
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
	r.Get("/products", h.products)
	r.Get("/posm", h.posmItems)
}

func (h *Handler) products(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUpstream)
		return
	}
	if items == nil {
		items = []Product{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": items})
}

func (h *Handler) posmItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.SearchPosmItems(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("list posm items", slog.Any("error", err))
		httpx.RespondError(w, httpx.ErrUpstream)
		return
	}
	if items == nil {
		items = []PosmItem{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"posm_items": items})
}
