package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authHandler "tenantgate/internal/auth/handler"
	authmw "tenantgate/internal/auth/middleware"
	"tenantgate/internal/authz"
	"tenantgate/internal/platform/health"
	tenantHandler "tenantgate/internal/tenant/handler"
	venueHandler "tenantgate/internal/venue/handler"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/platform/middleware/request"
	"tenantgate/pkg/platform/tx"
)

// Deps are the handlers and collaborators the router mounts.
type Deps struct {
	Logger   *slog.Logger
	Health   *health.Handler
	Auth     *authHandler.Handler
	Resolver authmw.Resolver
	Tenants  *tenantHandler.Handler
	Venues   *venueHandler.Handler
	Gate     *authz.Gate
	TxRunner tx.Runner

	AuthzMetrics   *authz.Metrics
	RequestMetrics *request.Metrics
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// NewRouter wires every endpoint behind the shared middleware stack.
//
// Route layout:
//
//	/health, /metrics                    public
//	/auth/login, /auth/refresh, ...      public
//	/auth/me, /auth/sessions             any principal
//	/admin/...                           super admin (checked by the service)
//	/tenants/{tenantID}/...              principals of that tenant, or super admin
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(d.Logger))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(request.ClientMetadata)
	r.Use(request.Logger(d.Logger))
	r.Use(request.Latency(d.RequestMetrics, routePattern))
	if d.RequestTimeout > 0 {
		r.Use(request.Timeout(d.RequestTimeout))
	}
	if d.MaxBodyBytes > 0 {
		r.Use(request.BodyLimit(d.MaxBodyBytes))
	}
	r.Use(request.ContentTypeJSON)

	d.Health.Register(r)
	r.Handle("/metrics", promhttp.Handler())

	d.Auth.Register(r)

	requireAuth := authmw.RequireAuth(d.Resolver, d.Logger)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		d.Auth.RegisterProtected(r)
		d.Tenants.Register(r)
	})

	r.Route("/tenants/{tenantID}", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(authz.RequireTenantParam("tenantID", d.AuthzMetrics, d.Logger))
		d.Tenants.RegisterTenantRoutes(r)
		d.Venues.Register(r)
		r.Get("/capabilities/{capability}", authz.CapabilityHandler(d.Gate, d.TxRunner, d.Logger))
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no such route"))
	})

	return r
}

// routePattern reads the matched chi pattern once the request has been
// routed. Unmatched paths collapse into one label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
