// Package middleware authenticates requests and carries the resolved
// principal through the request context.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"tenantgate/internal/auth/models"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/requestcontext"
)

const (
	SessionCookieName  = "tg_session"
	HeaderSessionToken = "X-Session-Token"
	HeaderDevOverride  = "X-Dev-Override"
)

// Resolver turns presented credentials into a principal.
type Resolver interface {
	Resolve(ctx context.Context, creds models.Credentials) (*models.Principal, error)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by RequireAuth.
func PrincipalFrom(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*models.Principal)
	return p, ok && p != nil
}

// ExtractCredentials picks the first credential present, in order: bearer
// token, session cookie, session header, dev override header. Role or
// tenant headers sent by the client are never consulted.
func ExtractCredentials(r *http.Request) (models.Credentials, bool) {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
		return models.Credentials{Kind: models.CredentialBearer, Token: strings.TrimSpace(token)}, true
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return models.Credentials{Kind: models.CredentialSession, Token: cookie.Value}, true
	}
	if token := r.Header.Get(HeaderSessionToken); token != "" {
		return models.Credentials{Kind: models.CredentialSession, Token: token}, true
	}
	if ident := r.Header.Get(HeaderDevOverride); ident != "" {
		return models.Credentials{Kind: models.CredentialDevOverride, Token: ident}, true
	}
	return models.Credentials{}, false
}

// RequireAuth resolves the request's credentials and stores the principal in
// the context. Anything short of a valid principal ends the request with 401.
func RequireAuth(resolver Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			creds, ok := ExtractCredentials(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing credentials",
					"event", "auth_failed",
					"reason", "missing_credentials",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "authentication required"))
				return
			}

			principal, err := resolver.Resolve(ctx, creds)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeUnauthenticated) {
					logger.WarnContext(ctx, "unauthorized access - credentials rejected",
						"event", "auth_failed",
						"credential_kind", string(creds.Kind),
						"reason", err.Error(),
						"request_id", requestcontext.RequestID(ctx),
					)
				} else {
					logger.ErrorContext(ctx, "failed to resolve principal",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
				}
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}
