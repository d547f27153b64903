package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	authmw "tenantgate/internal/auth/middleware"
	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/tenant/handler/mocks"
	"tenantgate/internal/tenant/models"
	"tenantgate/internal/tenant/service"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
)

type TenantHandlerSuite struct {
	suite.Suite
	service   *mocks.MockService
	router    *chi.Mux
	principal *authModels.Principal
	tenant    *models.Tenant
}

func TestTenantHandlerSuite(t *testing.T) {
	suite.Run(t, new(TenantHandlerSuite))
}

var createdAt = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

func (s *TenantHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.principal = &authModels.Principal{
		SubjectID: id.SubjectID(uuid.New()),
		Kind:      authModels.SubjectSuperAdmin,
		Roles:     []authModels.Role{authModels.RoleSuperAdmin},
	}
	s.tenant = &models.Tenant{
		ID:        id.TenantID(uuid.New()),
		Name:      "Acme",
		Slug:      "acme",
		Status:    models.TenantStatusPending,
		PlanID:    id.PlanID(uuid.New()),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if s.principal != nil {
				req = req.WithContext(authmw.WithPrincipal(req.Context(), s.principal))
			}
			next.ServeHTTP(w, req)
		})
	})
	h.Register(r)
	r.Route("/tenants/{tenantID}", h.RegisterTenantRoutes)
	s.router = r
}

func (s *TenantHandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *TenantHandlerSuite) decode(rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func (s *TenantHandlerSuite) TestCreateTenant() {
	s.Run("created", func() {
		s.service.EXPECT().
			CreateTenant(gomock.Any(), s.principal, service.CreateTenantCommand{Name: "Acme", Slug: "acme", PlanSlug: "starter"}).
			Return(s.tenant, nil)

		rec := s.do(http.MethodPost, "/admin/tenants", `{"name":" Acme ","slug":"ACME","plan":"starter"}`)
		s.Equal(http.StatusCreated, rec.Code)
		body := s.decode(rec)
		s.Equal(s.tenant.ID.String(), body["id"])
		s.Equal("pending", body["status"])
		s.Equal(s.tenant.PlanID.String(), body["plan_id"])
	})

	s.Run("invalid slug never reaches the service", func() {
		rec := s.do(http.MethodPost, "/admin/tenants", `{"name":"Acme","slug":"a","plan":"starter"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("validation_error", s.decode(rec)["error"])
	})

	s.Run("unknown fields are rejected", func() {
		rec := s.do(http.MethodPost, "/admin/tenants", `{"name":"Acme","slug":"acme","plan":"starter","status":"active"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("denied", func() {
		s.service.EXPECT().CreateTenant(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.NewDenied(dErrors.CodePermissionDenied, dErrors.ReasonMissingPermission, "missing capability tenants.manage"))

		rec := s.do(http.MethodPost, "/admin/tenants", `{"name":"Acme","slug":"acme","plan":"starter"}`)
		s.Equal(http.StatusForbidden, rec.Code)
		s.Equal("missing_permission", s.decode(rec)["reason"])
	})
}

func (s *TenantHandlerSuite) TestTransitions() {
	active := *s.tenant
	active.Status = models.TenantStatusActive
	suspended := *s.tenant
	suspended.Status = models.TenantStatusSuspended

	s.service.EXPECT().ActivateTenant(gomock.Any(), s.principal, s.tenant.ID).Return(&active, nil)
	rec := s.do(http.MethodPost, "/admin/tenants/"+s.tenant.ID.String()+"/activate", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("active", s.decode(rec)["status"])

	s.service.EXPECT().SuspendTenant(gomock.Any(), s.principal, s.tenant.ID).Return(&suspended, nil)
	rec = s.do(http.MethodPost, "/admin/tenants/"+s.tenant.ID.String()+"/suspend", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("suspended", s.decode(rec)["status"])

	s.service.EXPECT().CancelTenant(gomock.Any(), s.principal, s.tenant.ID).
		Return(nil, dErrors.New(dErrors.CodeConflict, "tenant is already cancelled"))
	rec = s.do(http.MethodPost, "/admin/tenants/"+s.tenant.ID.String()+"/cancel", "")
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/admin/tenants/not-a-uuid/activate", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *TenantHandlerSuite) TestChangePlan() {
	planID := id.PlanID(uuid.New())
	moved := *s.tenant
	moved.PlanID = planID
	s.service.EXPECT().ChangePlan(gomock.Any(), s.principal, s.tenant.ID, planID).Return(&moved, nil)

	rec := s.do(http.MethodPut, "/admin/tenants/"+s.tenant.ID.String()+"/plan", `{"plan_id":"`+planID.String()+`"}`)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(planID.String(), s.decode(rec)["plan_id"])

	rec = s.do(http.MethodPut, "/admin/tenants/"+s.tenant.ID.String()+"/plan", `{"plan_id":"gold"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *TenantHandlerSuite) TestGetAndDeleteTenant() {
	plan := &models.Plan{ID: s.tenant.PlanID, Slug: "starter", Name: "Starter", Limits: map[models.LimitKey]int64{models.LimitMaxUsers: 3}}
	s.service.EXPECT().GetTenant(gomock.Any(), s.principal, s.tenant.ID).Return(&service.TenantDetails{
		Tenant: s.tenant,
		Plan:   plan,
		Usage:  map[models.LimitKey]service.UsageView{models.LimitMaxUsers: {Used: 2, Limit: 3}},
	}, nil)

	rec := s.do(http.MethodGet, "/admin/tenants/"+s.tenant.ID.String(), "")
	s.Equal(http.StatusOK, rec.Code)
	body := s.decode(rec)
	usage := body["usage"].(map[string]any)["max_users"].(map[string]any)
	s.Equal(float64(2), usage["used"])
	s.Equal(float64(3), usage["limit"])

	s.service.EXPECT().DeleteTenant(gomock.Any(), s.principal, s.tenant.ID).Return(nil)
	rec = s.do(http.MethodDelete, "/admin/tenants/"+s.tenant.ID.String(), "")
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *TenantHandlerSuite) TestRevokeSessions() {
	s.service.EXPECT().RevokeTenantSessions(gomock.Any(), s.principal, s.tenant.ID).Return(4, nil)

	rec := s.do(http.MethodPost, "/admin/tenants/"+s.tenant.ID.String()+"/sessions/revoke", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(float64(4), s.decode(rec)["revoked"])
}

func (s *TenantHandlerSuite) TestPlans() {
	plan := &models.Plan{ID: id.PlanID(uuid.New()), Slug: "pro", Name: "Pro",
		Limits:   map[models.LimitKey]int64{models.LimitMaxUsers: -1},
		Features: map[models.Feature]bool{models.FeatureVoiceBooking: true},
	}

	s.service.EXPECT().CreatePlan(gomock.Any(), s.principal, service.PlanCommand{
		Slug:     "pro",
		Name:     "Pro",
		Limits:   map[models.LimitKey]int64{models.LimitMaxUsers: -1},
		Features: map[models.Feature]bool{models.FeatureVoiceBooking: true},
	}).Return(plan, nil)
	rec := s.do(http.MethodPost, "/admin/plans", `{"slug":"Pro","name":"Pro","limits":{"max_users":-1},"features":{"voice_booking":true}}`)
	s.Equal(http.StatusCreated, rec.Code)
	s.Equal("pro", s.decode(rec)["slug"])

	s.service.EXPECT().UpdatePlan(gomock.Any(), s.principal, plan.ID, gomock.Any()).Return(plan, nil)
	rec = s.do(http.MethodPut, "/admin/plans/"+plan.ID.String(), `{"name":"Pro"}`)
	s.Equal(http.StatusOK, rec.Code)

	s.service.EXPECT().ListPlans(gomock.Any(), s.principal).Return([]*models.Plan{plan}, nil)
	rec = s.do(http.MethodGet, "/admin/plans", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Len(s.decode(rec)["plans"], 1)

	rec = s.do(http.MethodPost, "/admin/plans", `{"slug":"free","name":"  "}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *TenantHandlerSuite) TestUsers() {
	tenantPath := "/tenants/" + s.tenant.ID.String() + "/users"
	user := &authModels.TenantUser{
		ID:           id.UserID(uuid.New()),
		TenantID:     s.tenant.ID,
		Email:        "ann@acme.test",
		PasswordHash: "$2a$10$secret",
		Roles:        []authModels.Role{authModels.RoleTenantStaff},
		Active:       true,
		CreatedAt:    createdAt,
	}

	s.Run("create", func() {
		s.service.EXPECT().CreateUser(gomock.Any(), s.principal, s.tenant.ID, service.CreateUserCommand{
			Email:    "ann@acme.test",
			Password: "correct horse battery staple",
			Roles:    []authModels.Role{authModels.RoleTenantStaff},
		}).Return(user, nil)

		rec := s.do(http.MethodPost, tenantPath, `{"email":"Ann@Acme.test","password":"correct horse battery staple","roles":["tenant_staff"]}`)
		s.Equal(http.StatusCreated, rec.Code)
		s.NotContains(rec.Body.String(), "secret")
		s.Equal("ann@acme.test", s.decode(rec)["email"])
	})

	s.Run("plan limit", func() {
		s.service.EXPECT().CreateUser(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.NewLimitExceeded("max_users", "plan limit max_users reached"))

		rec := s.do(http.MethodPost, tenantPath, `{"email":"bob@acme.test","password":"correct horse battery staple","roles":["tenant_staff"]}`)
		s.Equal(http.StatusForbidden, rec.Code)
		body := s.decode(rec)
		s.Equal("plan_limit_exceeded", body["error"])
		s.Equal("max_users", body["limit"])
	})

	s.Run("unknown role", func() {
		rec := s.do(http.MethodPost, tenantPath, `{"email":"bob@acme.test","password":"correct horse battery staple","roles":["super_admin"]}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("list", func() {
		s.service.EXPECT().ListUsers(gomock.Any(), s.principal, s.tenant.ID).Return([]*authModels.TenantUser{user}, nil)
		rec := s.do(http.MethodGet, tenantPath, "")
		s.Equal(http.StatusOK, rec.Code)
		s.Len(s.decode(rec)["users"], 1)
	})

	s.Run("update grants", func() {
		updated := *user
		updated.ExplicitPermissions = []string{"audit_logs.read"}
		s.service.EXPECT().UpdateUser(gomock.Any(), s.principal, s.tenant.ID, user.ID, service.UpdateUserCommand{
			Permissions: []string{"audit_logs.read"},
		}).Return(&updated, nil)

		rec := s.do(http.MethodPut, tenantPath+"/"+user.ID.String(), `{"permissions":[" Audit_Logs.Read "]}`)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal([]any{"audit_logs.read"}, s.decode(rec)["permissions"])
	})

	s.Run("update roles keeps grants unset", func() {
		s.service.EXPECT().UpdateUser(gomock.Any(), s.principal, s.tenant.ID, user.ID, service.UpdateUserCommand{
			Roles: []authModels.Role{authModels.RoleTenantManager},
		}).Return(user, nil)

		rec := s.do(http.MethodPut, tenantPath+"/"+user.ID.String(), `{"roles":["tenant_manager"]}`)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal([]any{}, s.decode(rec)["permissions"])
	})

	s.Run("update needs a field", func() {
		rec := s.do(http.MethodPut, tenantPath+"/"+user.ID.String(), `{}`)
		s.Equal(http.StatusBadRequest, rec.Code)

		rec = s.do(http.MethodPut, tenantPath+"/"+user.ID.String(), `{"roles":[]}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("update refused grant", func() {
		s.service.EXPECT().UpdateUser(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.NewDenied(dErrors.CodePermissionDenied, dErrors.ReasonMissingPermission, "cannot grant capability ai_analytics"))

		rec := s.do(http.MethodPut, tenantPath+"/"+user.ID.String(), `{"permissions":["ai_analytics"]}`)
		s.Equal(http.StatusForbidden, rec.Code)
		s.Equal("missing_permission", s.decode(rec)["reason"])
	})

	s.Run("delete", func() {
		s.service.EXPECT().DeleteUser(gomock.Any(), s.principal, s.tenant.ID, user.ID).Return(nil)
		rec := s.do(http.MethodDelete, tenantPath+"/"+user.ID.String(), "")
		s.Equal(http.StatusNoContent, rec.Code)

		rec = s.do(http.MethodDelete, tenantPath+"/nope", "")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *TenantHandlerSuite) TestRequiresPrincipal() {
	s.principal = nil
	rec := s.do(http.MethodGet, "/admin/tenants", "")
	s.Equal(http.StatusUnauthorized, rec.Code)
}
