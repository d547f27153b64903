package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "tenantgate/internal/auth/middleware"
	authModels "tenantgate/internal/auth/models"
	"tenantgate/internal/tenant/models"
	"tenantgate/internal/tenant/service"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/requestcontext"
)

// Service defines the interface for tenant administration operations.
type Service interface {
	CreateTenant(ctx context.Context, p *authModels.Principal, cmd service.CreateTenantCommand) (*models.Tenant, error)
	ListTenants(ctx context.Context, p *authModels.Principal) ([]*models.Tenant, error)
	GetTenant(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) (*service.TenantDetails, error)
	ActivateTenant(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) (*models.Tenant, error)
	SuspendTenant(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) (*models.Tenant, error)
	CancelTenant(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) (*models.Tenant, error)
	ChangePlan(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, planID id.PlanID) (*models.Tenant, error)
	DeleteTenant(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) error
	RevokeTenantSessions(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) (int, error)

	CreatePlan(ctx context.Context, p *authModels.Principal, cmd service.PlanCommand) (*models.Plan, error)
	UpdatePlan(ctx context.Context, p *authModels.Principal, planID id.PlanID, cmd service.PlanCommand) (*models.Plan, error)
	ListPlans(ctx context.Context, p *authModels.Principal) ([]*models.Plan, error)

	CreateUser(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, cmd service.CreateUserCommand) (*authModels.TenantUser, error)
	ListUsers(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) ([]*authModels.TenantUser, error)
	UpdateUser(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, userID id.UserID, cmd service.UpdateUserCommand) (*authModels.TenantUser, error)
	DeleteUser(ctx context.Context, p *authModels.Principal, tenantID id.TenantID, userID id.UserID) error
}

// Handler handles the super-admin console and tenant user management.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the super-admin routes. The parent router applies RequireAuth;
// capability checks happen in the service.
func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/tenants", h.HandleListTenants)
	r.Post("/admin/tenants", h.HandleCreateTenant)
	r.Get("/admin/tenants/{id}", h.HandleGetTenant)
	r.Delete("/admin/tenants/{id}", h.HandleDeleteTenant)
	r.Post("/admin/tenants/{id}/activate", h.HandleActivateTenant)
	r.Post("/admin/tenants/{id}/suspend", h.HandleSuspendTenant)
	r.Post("/admin/tenants/{id}/cancel", h.HandleCancelTenant)
	r.Put("/admin/tenants/{id}/plan", h.HandleChangePlan)
	r.Post("/admin/tenants/{id}/sessions/revoke", h.HandleRevokeSessions)

	r.Get("/admin/plans", h.HandleListPlans)
	r.Post("/admin/plans", h.HandleCreatePlan)
	r.Put("/admin/plans/{id}", h.HandleUpdatePlan)
}

// RegisterTenantRoutes mounts user management inside a router already scoped
// to /tenants/{tenantID} and guarded by authz.RequireTenantParam.
func (h *Handler) RegisterTenantRoutes(r chi.Router) {
	r.Get("/users", h.HandleListUsers)
	r.Post("/users", h.HandleCreateUser)
	r.Put("/users/{userID}", h.HandleUpdateUser)
	r.Delete("/users/{userID}", h.HandleDeleteUser)
}

func (h *Handler) HandleCreateTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	p, ok := principal(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateTenantRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	tenant, err := h.service.CreateTenant(ctx, p, req.toCommand())
	if err != nil {
		h.logFailure(ctx, "failed to create tenant", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toTenantResponse(tenant))
}

func (h *Handler) HandleListTenants(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	tenants, err := h.service.ListTenants(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]*TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, toTenantResponse(t))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"tenants": out})
}

func (h *Handler) HandleGetTenant(w http.ResponseWriter, r *http.Request) {
	p, tenantID, ok := principalAndTenant(w, r, "id")
	if !ok {
		return
	}
	details, err := h.service.GetTenant(r.Context(), p, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantDetailsResponse(details))
}

func (h *Handler) HandleActivateTenant(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.ActivateTenant)
}

func (h *Handler) HandleSuspendTenant(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.SuspendTenant)
}

func (h *Handler) HandleCancelTenant(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.CancelTenant)
}

type transitionFunc func(ctx context.Context, p *authModels.Principal, tenantID id.TenantID) (*models.Tenant, error)

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, apply transitionFunc) {
	ctx := r.Context()
	p, tenantID, ok := principalAndTenant(w, r, "id")
	if !ok {
		return
	}
	tenant, err := apply(ctx, p, tenantID)
	if err != nil {
		h.logFailure(ctx, "tenant status change failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(tenant))
}

func (h *Handler) HandleChangePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, tenantID, ok := principalAndTenant(w, r, "id")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ChangePlanRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	planID, err := parsePlanID(req.PlanID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tenant, err := h.service.ChangePlan(ctx, p, tenantID, planID)
	if err != nil {
		h.logFailure(ctx, "failed to change plan", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toTenantResponse(tenant))
}

func (h *Handler) HandleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, tenantID, ok := principalAndTenant(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteTenant(ctx, p, tenantID); err != nil {
		h.logFailure(ctx, "failed to delete tenant", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRevokeSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, tenantID, ok := principalAndTenant(w, r, "id")
	if !ok {
		return
	}
	count, err := h.service.RevokeTenantSessions(ctx, p, tenantID)
	if err != nil {
		h.logFailure(ctx, "failed to revoke tenant sessions", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"revoked": count})
}

func (h *Handler) HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[PlanRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	plan, err := h.service.CreatePlan(ctx, p, req.toCommand())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toPlanResponse(plan))
}

func (h *Handler) HandleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := principal(w, r)
	if !ok {
		return
	}
	planID, err := parsePlanID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[PlanRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	plan, err := h.service.UpdatePlan(ctx, p, planID, req.toCommand())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPlanResponse(plan))
}

func (h *Handler) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	plans, err := h.service.ListPlans(r.Context(), p)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]*PlanResponse, 0, len(plans))
	for _, plan := range plans {
		out = append(out, toPlanResponse(plan))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"plans": out})
}

func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, tenantID, ok := principalAndTenant(w, r, "tenantID")
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CreateUserRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	user, err := h.service.CreateUser(ctx, p, tenantID, req.toCommand())
	if err != nil {
		h.logFailure(ctx, "failed to create user", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	p, tenantID, ok := principalAndTenant(w, r, "tenantID")
	if !ok {
		return
	}
	users, err := h.service.ListUsers(r.Context(), p, tenantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"users": out})
}

// HandleUpdateUser implements PUT /tenants/{tenantID}/users/{userID}.
func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, tenantID, ok := principalAndTenant(w, r, "tenantID")
	if !ok {
		return
	}
	userID, ok := userParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateUserRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	user, err := h.service.UpdateUser(ctx, p, tenantID, userID, req.toCommand())
	if err != nil {
		h.logFailure(ctx, "failed to update user", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, tenantID, ok := principalAndTenant(w, r, "tenantID")
	if !ok {
		return
	}
	userID, ok := userParam(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(ctx, p, tenantID, userID); err != nil {
		h.logFailure(ctx, "failed to delete user", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// logFailure logs server-side faults only; client errors are already in the
// response and the audit trail.
func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}

func principal(w http.ResponseWriter, r *http.Request) (*authModels.Principal, bool) {
	p, ok := authmw.PrincipalFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "authentication required"))
		return nil, false
	}
	return p, true
}

func principalAndTenant(w http.ResponseWriter, r *http.Request, param string) (*authModels.Principal, id.TenantID, bool) {
	p, ok := principal(w, r)
	if !ok {
		return nil, id.TenantID{}, false
	}
	tenantID, err := id.ParseTenantID(chi.URLParam(r, param))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid tenant id"))
		return nil, id.TenantID{}, false
	}
	return p, tenantID, true
}

func userParam(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user id"))
		return id.UserID{}, false
	}
	return userID, true
}
