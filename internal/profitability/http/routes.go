package profitabilityhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/cleanmanager/cleanmanager/internal/platform/httpx"
	"github.com/cleanmanager/cleanmanager/internal/shared"
)

// MountRoutes registers the profitability endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Problem(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), "")
		}),
	)

	r.Route("/rentabilidad", func(r chi.Router) {
		r.Use(shared.RequireTenant)
		r.Get("/", h.handleSummary)
		r.Get("/trend", h.handleTrend)
		r.Group(func(gr chi.Router) {
			gr.Use(limiter)
			gr.Get("/export.csv", h.handleCSV)
			gr.Get("/chart.svg", h.handleChart)
		})
	})
}

// rateLimitKey buckets exports per tenant, falling back to the client IP.
func rateLimitKey(r *http.Request) (string, error) {
	if tenant := shared.TenantFromContext(r.Context()); tenant != "" {
		return "tenant:" + tenant, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
