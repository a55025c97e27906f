// Package admin hosts the small, conventional net/http side channel
// described in SPEC_FULL.md section 4.1: health, metrics, and a debug
// dump of the context registry. It deliberately runs on ordinary
// blocking net/http rather than the select-based core, the same
// separation caddyserver/caddy draws between its admin API and its
// data-plane listeners.
package admin

import (
	"encoding/json"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/littlekitten/lkserver/internal/metrics"
)

// Registry is the subset of *httpcore.Server the admin surface needs,
// kept as an interface to avoid importing httpcore just for two getters.
type Registry interface {
	RegistrySize() int
	RoleHistogram() map[string]int
}

// NewRouter builds the chi router for the admin listener.
func NewRouter(reg Registry, coll *metrics.Collectors) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	r.Handle("/metrics", promhttp.HandlerFor(coll.Registry, promhttp.HandlerOpts{}))

	r.Get("/debug/contexts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"active_contexts": reg.RegistrySize(),
			"by_role":         reg.RoleHistogram(),
			"active_summary":  humanize.Comma(int64(reg.RegistrySize())) + " contexts",
		})
	})

	return r
}
