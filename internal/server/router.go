// Package server assembles the tokengate HTTP surface on a chi router.
package server

import (
	"context"
	"net/http"

	"github.com/MrEthical07/tokengate"
	"github.com/MrEthical07/tokengate/internal/config"
	"github.com/MrEthical07/tokengate/internal/logging"
	tgprom "github.com/MrEthical07/tokengate/metrics/export/prometheus"
	tgmw "github.com/MrEthical07/tokengate/middleware"
	"github.com/MrEthical07/tokengate/users"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AdminRole guards the /admin routes.
const AdminRole = "ROLE_ADMIN"

// Deps are the collaborators of NewRouter. Engine is required.
type Deps struct {
	Engine    *tokengate.Engine
	Registrar *users.Registrar
	Logger    *logging.Logger
	// Registry receives HTTP and engine metrics. Nil creates a private one.
	Registry   *prometheus.Registry
	CORS       config.CORSConfig
	TrustProxy bool
	// Ready is an extra health probe, typically the user database ping.
	Ready func(context.Context) error
}

// NewRouter wires every route. The gate runs on every request, so a bad access
// header is rejected even on /login; a request without one passes through
// anonymously and only the protected routes demand an identity.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logging.Default()
	}
	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	reg.MustRegister(tgprom.NewCollector(d.Engine))
	red := newHTTPMetrics(reg)

	h := &handlers{
		engine:    d.Engine,
		registrar: d.Registrar,
		logger:    d.Logger,
		ready:     d.Ready,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(accessLog(d.Logger))
	r.Use(red.middleware)
	r.Use(cors.Handler(corsOptions(d.CORS, d.Engine.AccessHeader())))
	r.Use(tgmw.ClientIP(d.TrustProxy))
	r.Use(tgmw.Gate(d.Engine))

	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Method(http.MethodPost, "/login", tgmw.CredentialFilter(d.Engine))
	r.Method(http.MethodPost, "/reissue", tgmw.ReissueHandler(d.Engine))
	r.Method(http.MethodPost, "/logout", tgmw.LogoutHandler(d.Engine))
	r.Post("/join", h.join)

	r.With(tgmw.RequireAuthenticated()).Get("/", h.me)
	r.Route("/admin", func(r chi.Router) {
		r.Use(tgmw.RequireRole(AdminRole))
		r.Get("/", h.admin)
		r.Post("/revoke", h.revoke)
	})

	return r
}

func corsOptions(c config.CORSConfig, accessHeader string) cors.Options {
	origins := c.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Authorization", accessHeader},
		AllowCredentials: true,
		MaxAge:           c.MaxAge,
	}
}
