package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"provenant/internal/passport/handler"
	"provenant/pkg/httputil"
)

// Availability reports remote ledger reachability for the health endpoint.
type Availability interface {
	IsAvailable(ctx context.Context) bool
}

// NewRouter wires all public endpoints. Transport concerns only; business
// logic stays in the services behind the handler.
func NewRouter(h *handler.Handler, ledger Availability) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		status := "up"
		if ledger != nil && !ledger.IsAvailable(req.Context()) {
			status = "down"
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"ledger": status,
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	h.Register(r)
	return r
}
