package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "tenantgate/internal/auth/middleware"
	"tenantgate/internal/auth/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/platform/tx"
	"tenantgate/pkg/requestcontext"
)

var errDiscardDryRun = errors.New("dry run reservation discarded")

// DryRun reports whether p could exercise capability on tenantID right now.
// For limited capabilities it reserves one unit inside a transaction that is
// always rolled back, so a full plan reads as a limit denial without
// consuming anything.
func (g *Gate) DryRun(ctx context.Context, runner tx.Runner, p *models.Principal, capability Capability, tenantID id.TenantID) error {
	if _, limited := capability.Limit(); !limited {
		return g.Check(ctx, p, capability, &tenantID)
	}
	err := runner.RunInTx(ctx, func(txCtx context.Context) error {
		if err := g.Authorize(txCtx, p, CapabilityRequest{Capability: capability, TenantID: &tenantID, Delta: 1}); err != nil {
			return err
		}
		return errDiscardDryRun
	})
	if errors.Is(err, errDiscardDryRun) {
		return nil
	}
	return err
}

type capabilityResponse struct {
	Capability string `json:"capability"`
	Allowed    bool   `json:"allowed"`
	Error      string `json:"error,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Limit      string `json:"limit,omitempty"`
}

// CapabilityHandler serves GET .../capabilities/{capability} under
// RequireTenantParam. Decided checks answer 200 with the typed denial in the
// body; unknown capabilities are 404.
func CapabilityHandler(gate *Gate, runner tx.Runner, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		p, ok := authmw.PrincipalFrom(ctx)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "authentication required"))
			return
		}
		tenantID, ok := TenantFrom(ctx)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "tenant ID required"))
			return
		}
		capability, err := ParseCapability(chi.URLParam(r, "capability"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		err = gate.DryRun(ctx, runner, p, capability, tenantID)
		resp := capabilityResponse{Capability: string(capability), Allowed: err == nil}
		if err != nil {
			var de *dErrors.Error
			if !errors.As(err, &de) || de.Code == dErrors.CodeInternal || de.Code == dErrors.CodeTimeout {
				logger.ErrorContext(ctx, "capability dry run failed",
					"capability", string(capability),
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			resp.Error = httputil.DomainCodeToHTTPCode(de.Code)
			resp.Reason = de.Reason
			resp.Limit = de.Limit
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}
