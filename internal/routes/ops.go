package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/bespoke/internal/handler"
	"github.com/dukerupert/bespoke/internal/middleware"
	"github.com/dukerupert/bespoke/internal/router"
)

const healthTimeout = 2 * time.Second

// RegisterOpsRoutes registers /health and /metrics.
// The metrics endpoint has no auth; restrict it at the network edge.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	metrics := promhttp.Handler()
	if deps.Gatherer != nil {
		metrics = promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})
	}
	r.Handle(http.MethodGet, "/metrics", metrics)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if deps.Database != nil {
			ctx, cancel := context.WithTimeout(req.Context(), healthTimeout)
			defer cancel()

			if err := deps.Database.Ping(ctx); err != nil {
				middleware.GetLogger(req.Context()).Error("health check failed", "error", err)
				handler.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		handler.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
