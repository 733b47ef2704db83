package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/catalog"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/identity"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/notify"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/platform/httpx"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/recommend"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/requests"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/review"
)

// RouterParams wires domain handlers into the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	Requests  *requests.Handler
	Review    *review.Handler
	Recommend *recommend.Handler
	Catalog   *catalog.Handler
	Notify    *notify.Handler
}

// NewRouter assembles the chi router with the default middleware chain
// and mounts all API routes under /api.
func NewRouter(p RouterParams) chi.Router {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(identity.Middleware)

		api.Route("/requests", p.Requests.MountRoutes)
		api.Route("/recommended-load", p.Recommend.MountRoutes)
		api.Route("/review", p.Review.MountRoutes)
		api.Route("/catalog", p.Catalog.MountRoutes)
		api.Route("/notifications", p.Notify.MountRoutes)
	})

	return r
}
