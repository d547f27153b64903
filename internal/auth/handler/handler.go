package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	authmw "tenantgate/internal/auth/middleware"
	"tenantgate/internal/auth/models"
	"tenantgate/internal/auth/service"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/platform/httputil"
	"tenantgate/pkg/requestcontext"
	"tenantgate/pkg/validation"
)

// Service defines the session operations the handler exposes.
type Service interface {
	Login(ctx context.Context, req service.LoginRequest) (*service.LoginResult, error)
	LoginFederated(ctx context.Context, req service.FederatedLoginRequest) (*service.LoginResult, error)
	Refresh(ctx context.Context, token string) (*service.LoginResult, error)
	Logout(ctx context.Context, token string) error
	ListSessions(ctx context.Context, p *models.Principal) ([]service.SessionView, error)
}

// Handler serves login, refresh, logout and the caller's own session views.
type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

// Register mounts the public endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/login/federated", h.HandleFederatedLogin)
	r.Post("/auth/refresh", h.HandleRefresh)
	r.Post("/auth/logout", h.HandleLogout)
}

// RegisterProtected mounts endpoints that need a resolved principal. The
// parent router applies RequireAuth.
func (h *Handler) RegisterProtected(r chi.Router) {
	r.Get("/auth/me", h.HandleMe)
	r.Get("/auth/sessions", h.HandleListSessions)
}

type tokenRequest struct {
	SessionToken string `json:"session_token,omitempty"`
}

type loginResponse struct {
	SessionToken         string            `json:"session_token"`
	AccessToken          string            `json:"access_token"`
	TokenType            string            `json:"token_type"`
	AccessTokenExpiresAt time.Time         `json:"access_token_expires_at"`
	ExpiresAt            time.Time         `json:"expires_at"`
	Principal            principalResponse `json:"principal"`
}

type principalResponse struct {
	SubjectID   string    `json:"subject_id"`
	Kind        string    `json:"kind"`
	TenantID    *string   `json:"tenant_id"`
	Email       string    `json:"email,omitempty"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	SessionID   *string   `json:"session_id,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type sessionResponse struct {
	ID                string     `json:"id"`
	DeviceDisplayName string     `json:"device_display_name"`
	Status            string     `json:"status"`
	CreatedAt         time.Time  `json:"created_at"`
	ExpiresAt         time.Time  `json:"expires_at"`
	RevokedAt         *time.Time `json:"revoked_at,omitempty"`
	Current           bool       `json:"current"`
}

// HandleLogin implements POST /auth/login.
//
// Input: { "kind": "tenant_user", "tenant_slug": "acme", "email": "...", "password": "..." }
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[service.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	req.TenantSlug = strings.ToLower(strings.TrimSpace(req.TenantSlug))
	req.Email = models.NormalizeEmail(req.Email)
	if err := validation.Validate(req); err != nil {
		h.logger.WarnContext(ctx, "invalid login request", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}
	req.UserAgent = r.UserAgent()

	res, err := h.auth.Login(ctx, *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeSession(w, r, res)
}

// HandleFederatedLogin implements POST /auth/login/federated.
func (h *Handler) HandleFederatedLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[service.FederatedLoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := validation.Validate(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	req.UserAgent = r.UserAgent()

	res, err := h.auth.LoginFederated(ctx, *req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.writeSession(w, r, res)
}

// HandleRefresh implements POST /auth/refresh. The session token comes from
// the cookie, the X-Session-Token header, or the JSON body, in that order.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token := sessionToken(r)
	if token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "session token is required"))
		return
	}

	res, err := h.auth.Refresh(ctx, token)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthenticated) {
			clearSessionCookie(w, r)
		}
		httputil.WriteError(w, err)
		return
	}
	h.writeSession(w, r, res)
}

// HandleLogout implements POST /auth/logout. Always 204 unless the store
// fails; a missing or stale token is not an error.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.auth.Logout(ctx, sessionToken(r)); err != nil {
		h.logger.ErrorContext(ctx, "logout failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	clearSessionCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the resolved principal.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := authmw.PrincipalFrom(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "authentication required"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPrincipalResponse(p))
}

// HandleListSessions implements GET /auth/sessions for the caller's own
// sessions.
func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, ok := authmw.PrincipalFrom(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthenticated, "authentication required"))
		return
	}

	views, err := h.auth.ListSessions(ctx, p)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list sessions",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]sessionResponse, 0, len(views))
	for _, v := range views {
		out = append(out, sessionResponse{
			ID:                v.ID.String(),
			DeviceDisplayName: v.DeviceDisplayName,
			Status:            string(v.Status),
			CreatedAt:         v.CreatedAt,
			ExpiresAt:         v.ExpiresAt,
			RevokedAt:         v.RevokedAt,
			Current:           v.Current,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

func (h *Handler) writeSession(w http.ResponseWriter, r *http.Request, res *service.LoginResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     authmw.SessionCookieName,
		Value:    res.SessionToken,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		SessionToken:         res.SessionToken,
		AccessToken:          res.AccessToken,
		TokenType:            "Bearer",
		AccessTokenExpiresAt: res.AccessTokenExpiresAt,
		ExpiresAt:            res.ExpiresAt,
		Principal:            toPrincipalResponse(res.Principal),
	})
}

func toPrincipalResponse(p *models.Principal) principalResponse {
	resp := principalResponse{
		SubjectID:   p.SubjectID.String(),
		Kind:        string(p.Kind),
		Email:       p.Email,
		Roles:       make([]string, 0, len(p.Roles)),
		Permissions: p.PermissionList(),
		ExpiresAt:   p.ExpiresAt,
	}
	for _, role := range p.Roles {
		resp.Roles = append(resp.Roles, string(role))
	}
	if p.TenantID != nil {
		tenantID := p.TenantID.String()
		resp.TenantID = &tenantID
	}
	if p.SessionID != nil {
		sessionID := p.SessionID.String()
		resp.SessionID = &sessionID
	}
	return resp
}

// sessionToken reads the opaque token without resolving it. Bearer tokens
// are not accepted here; they cannot be refreshed or logged out directly.
func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(authmw.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if token := r.Header.Get(authmw.HeaderSessionToken); token != "" {
		return token
	}
	if r.Body == nil || r.ContentLength == 0 {
		return ""
	}
	var body tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.SessionToken)
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     authmw.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
