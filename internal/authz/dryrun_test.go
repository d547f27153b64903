package authz

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	authmw "tenantgate/internal/auth/middleware"
	"tenantgate/internal/auth/models"
	tenantModels "tenantgate/internal/tenant/models"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/tx"
)

func (s *GateSuite) TestDryRunDoesNotConsume() {
	s.plans.EXPECT().CurrentPlan(gomock.Any(), s.tenantID).Return(s.plan, nil).Times(3)
	admin := s.principal(models.RoleTenantAdmin)
	runner := tx.NewMemoryRunner()

	s.NoError(s.gate.DryRun(s.ctx, runner, admin, CapUsersCreate, s.tenantID))
	used, err := s.usage.Get(s.ctx, s.tenantID, tenantModels.LimitMaxUsers, "")
	s.Require().NoError(err)
	s.Zero(used)

	_, err = s.usage.Reserve(s.ctx, s.tenantID, tenantModels.LimitMaxUsers, "", 2, 2)
	s.Require().NoError(err)
	err = s.gate.DryRun(s.ctx, runner, admin, CapUsersCreate, s.tenantID)
	s.Equal("max_users", limitOf(err))

	err = s.gate.DryRun(s.ctx, runner, admin, CapVoiceBooking, s.tenantID)
	s.Error(err, "admin holds voice_booking but the plan lacks the feature")
}

func (s *GateSuite) TestCapabilityHandler() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	staff := s.principal(models.RoleTenantStaff)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(authmw.WithPrincipal(req.Context(), staff)))
		})
	})
	r.Route("/tenants/{tenantID}", func(r chi.Router) {
		r.Use(RequireTenantParam("tenantID", nil, logger))
		r.Get("/capabilities/{capability}", CapabilityHandler(s.gate, tx.NewMemoryRunner(), logger))
	})

	ask := func(capability string) (int, map[string]any) {
		req := httptest.NewRequest(http.MethodGet, "/tenants/"+s.tenantID.String()+"/capabilities/"+capability, nil)
		req = req.WithContext(s.ctx)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		var body map[string]any
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		return rec.Code, body
	}

	code, body := ask("venues.read")
	s.Equal(http.StatusOK, code)
	s.Equal(true, body["allowed"])

	code, body = ask("users.create")
	s.Equal(http.StatusOK, code)
	s.Equal(false, body["allowed"])
	s.Equal("permission_denied", body["error"])
	s.Equal("missing_permission", body["reason"])

	code, _ = ask("teleport")
	s.Equal(http.StatusNotFound, code)
}

func limitOf(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Limit
	}
	return ""
}
