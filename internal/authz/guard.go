package authz

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "tenantgate/internal/auth/middleware"
	"tenantgate/internal/auth/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/requestcontext"
)

// AuthorizeTenantAccess allows super admins everywhere. Everyone else needs
// a tenant binding equal to the resource's; an absent tenant on either side
// is a denial, never a wildcard.
func AuthorizeTenantAccess(p *models.Principal, resourceTenantID *id.TenantID) error {
	if p == nil {
		return dErrors.New(dErrors.CodeUnauthenticated, "authentication required")
	}
	if p.IsSuperAdmin() {
		return nil
	}
	if !id.SameTenant(p.TenantID, resourceTenantID) {
		return dErrors.New(dErrors.CodeCrossTenantDenied, "resource belongs to another tenant")
	}
	return nil
}

type tenantKey struct{}

// TenantFrom returns the tenant admitted by RequireTenantParam.
func TenantFrom(ctx context.Context) (id.TenantID, bool) {
	tenantID, ok := ctx.Value(tenantKey{}).(id.TenantID)
	return tenantID, ok
}

// RequireTenantParam guards routes addressed by a tenant URL parameter. It
// must run after RequireAuth.
func RequireTenantParam(param string, metrics *Metrics, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal, ok := authmw.PrincipalFrom(ctx)
			if !ok {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "authentication required"))
				return
			}

			tenantID, err := id.ParseTenantID(chi.URLParam(r, param))
			if err != nil {
				httputil.WriteError(w, err)
				return
			}

			if err := AuthorizeTenantAccess(principal, &tenantID); err != nil {
				metrics.IncGuardDenied()
				logger.WarnContext(ctx, "cross-tenant access denied",
					"event", "access_denied",
					"subject_kind", string(principal.Kind),
					"subject_id", principal.SubjectID.String(),
					"resource_tenant_id", tenantID.String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, tenantKey{}, tenantID)))
		})
	}
}
