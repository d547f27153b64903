package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"tenantgate/internal/auth/models"
	id "tenantgate/pkg/domain"
	dErrors "tenantgate/pkg/domain-errors"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, creds models.Credentials) (*models.Principal, error) {
	args := m.Called(ctx, creds)
	if p := args.Get(0); p != nil {
		return p.(*models.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

type captureHandler struct {
	called    bool
	principal *models.Principal
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.principal, _ = PrincipalFrom(r.Context())
	w.WriteHeader(http.StatusOK)
}

type RequireAuthSuite struct {
	suite.Suite
	resolver *mockResolver
	next     *captureHandler
	handler  http.Handler
}

func TestRequireAuthSuite(t *testing.T) {
	suite.Run(t, new(RequireAuthSuite))
}

func (s *RequireAuthSuite) SetupTest() {
	s.resolver = new(mockResolver)
	s.next = &captureHandler{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.handler = RequireAuth(s.resolver, logger)(s.next)
}

func (s *RequireAuthSuite) serve(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, r)
	return rec
}

func (s *RequireAuthSuite) TestMissingCredentials() {
	rec := s.serve(httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.JSONEq(`{"error":"unauthenticated","error_description":"authentication required"}`, rec.Body.String())
	s.False(s.next.called)
}

func (s *RequireAuthSuite) TestResolvedPrincipalIsStored() {
	tenantID := id.TenantID(uuid.New())
	principal := &models.Principal{Kind: models.SubjectTenantUser, TenantID: &tenantID}
	s.resolver.On("Resolve", mock.Anything, models.Credentials{Kind: models.CredentialBearer, Token: "jwt"}).
		Return(principal, nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer jwt")
	rec := s.serve(req)

	s.Equal(http.StatusOK, rec.Code)
	s.Same(principal, s.next.principal)
}

func (s *RequireAuthSuite) TestRejectedCredentials() {
	s.resolver.On("Resolve", mock.Anything, mock.Anything).
		Return(nil, dErrors.New(dErrors.CodeUnauthenticated, "session revoked"))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set(HeaderSessionToken, "opaque")
	rec := s.serve(req)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.NotEmpty(rec.Header().Get("WWW-Authenticate"))
	s.False(s.next.called)
}

func (s *RequireAuthSuite) TestResolverFailureIsInternal() {
	s.resolver.On("Resolve", mock.Anything, mock.Anything).
		Return(nil, dErrors.New(dErrors.CodeInternal, "db down"))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set(HeaderSessionToken, "opaque")
	rec := s.serve(req)

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.NotContains(rec.Body.String(), "db down")
}

func (s *RequireAuthSuite) TestExtractCredentialsOrder() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderDevOverride, "admin")
	req.Header.Set(HeaderSessionToken, "header-token")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-token"})

	creds, ok := ExtractCredentials(req)
	s.Require().True(ok)
	s.Equal(models.Credentials{Kind: models.CredentialSession, Token: "cookie-token"}, creds)

	req.Header.Set("Authorization", "Bearer jwt")
	creds, _ = ExtractCredentials(req)
	s.Equal(models.CredentialBearer, creds.Kind)

	only := httptest.NewRequest(http.MethodGet, "/", nil)
	only.Header.Set(HeaderDevOverride, "admin")
	creds, _ = ExtractCredentials(only)
	s.Equal(models.Credentials{Kind: models.CredentialDevOverride, Token: "admin"}, creds)

	roleHeader := httptest.NewRequest(http.MethodGet, "/", nil)
	roleHeader.Header.Set("X-Role", "super_admin")
	_, ok = ExtractCredentials(roleHeader)
	s.False(ok)
}
