// Package http wires every handler onto the chi router with the shared
// middleware chain.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	engagementhandler "rangelog/internal/engagement/handler"
	environmenthandler "rangelog/internal/environment/handler"
	equipmenthandler "rangelog/internal/equipment/handler"
	geohandler "rangelog/internal/geo/handler"
	velocityhandler "rangelog/internal/velocity/handler"
	"rangelog/pkg/platform/httputil"
)

// Handlers collects every module's HTTP handler.
type Handlers struct {
	Velocity    *velocityhandler.Handler
	Environment *environmenthandler.Handler
	Equipment   *equipmenthandler.Handler
	Geo         *geohandler.Handler
	Engagement  *engagementhandler.Handler
}

// NewRouter mounts all module endpoints under /v1 plus the operational
// endpoints at the root.
func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestContext)
	r.Use(ownerIdentity)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		h.Velocity.Register(r)
		h.Environment.Register(r)
		h.Equipment.Register(r)
		h.Geo.Register(r)
		h.Engagement.Register(r)
	})

	return r
}
