package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"tenantgate/internal/auth/models"
	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/requestcontext"
)

// AccessTokenClaims are carried by bearer tokens. Roles are informational;
// the resolver always reloads the subject before trusting anything.
type AccessTokenClaims struct {
	Kind      string   `json:"kind"`
	TenantID  string   `json:"tenant_id,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	SessionID string   `json:"sid"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens bound to a session.
type TokenIssuer struct {
	signingKey []byte
	issuer     string
	audience   string
	tokenTTL   time.Duration
}

func NewTokenIssuer(signingKey, issuer, audience string, tokenTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		tokenTTL:   tokenTTL,
	}
}

// Issue signs a token for session. It never outlives the session.
func (t *TokenIssuer) Issue(ctx context.Context, session *models.Session, roles []models.Role) (string, time.Time, error) {
	now := requestcontext.Now(ctx)
	expiresAt := now.Add(t.tokenTTL)
	if session.ExpiresAt.Before(expiresAt) {
		expiresAt = session.ExpiresAt
	}

	jti, err := randomJTI()
	if err != nil {
		return "", time.Time{}, err
	}

	claims := AccessTokenClaims{
		Kind:      string(session.SubjectKind),
		Roles:     roleStrings(roles),
		SessionID: session.ID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.SubjectID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    t.issuer,
			Audience:  []string{t.audience},
			ID:        jti,
		},
	}
	if session.TenantID != nil {
		claims.TenantID = session.TenantID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.signingKey)
	if err != nil {
		return "", time.Time{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign access token")
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm, issuer, audience and expiry against
// the request time.
func (t *TokenIssuer) Verify(ctx context.Context, tokenString string) (*AccessTokenClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return t.signingKey, nil
	},
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return requestcontext.Now(ctx) }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthenticated, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid token")
	}

	claims, ok := parsed.Claims.(*AccessTokenClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "invalid token claims")
	}
	if claims.SessionID == "" || claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthenticated, "token is not bound to a session")
	}
	return claims, nil
}

func randomJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate token id")
	}
	return hex.EncodeToString(buf), nil
}

func roleStrings(roles []models.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
