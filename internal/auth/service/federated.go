package service

import (
	"context"
	"crypto/rsa"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "tenantgate/pkg/domain-errors"
	"tenantgate/pkg/requestcontext"
)

// FederatedIdentity is what an identity provider vouched for.
type FederatedIdentity struct {
	Provider string
	Subject  string
	Email    string
}

// FederatedVerifier validates an ID token issued by an external identity
// provider. Only verification lives here; the sign-in protocol happens in
// the browser.
type FederatedVerifier interface {
	Verify(ctx context.Context, idToken string) (*FederatedIdentity, error)
}

type federatedClaims struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified,omitempty"`
	jwt.RegisteredClaims
}

// RS256Verifier checks ID tokens against one configured public key.
type RS256Verifier struct {
	provider string
	key      *rsa.PublicKey
	issuer   string
	audience string
}

func NewRS256Verifier(provider, publicKeyPEM, issuer, audience string) (*RS256Verifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse federation public key: %w", err)
	}
	if issuer == "" || audience == "" {
		return nil, fmt.Errorf("federation issuer and audience are required")
	}
	return &RS256Verifier{provider: provider, key: key, issuer: issuer, audience: audience}, nil
}

func (v *RS256Verifier) Verify(ctx context.Context, idToken string) (*FederatedIdentity, error) {
	parsed, err := jwt.ParseWithClaims(idToken, &federatedClaims{}, func(token *jwt.Token) (any, error) {
		return v.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
		jwt.WithTimeFunc(func() time.Time { return requestcontext.Now(ctx) }),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidCredentials, "invalid identity token")
	}
	claims, ok := parsed.Claims.(*federatedClaims)
	if !ok || claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, "identity token has no subject")
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, "identity email is not verified")
	}
	return &FederatedIdentity{
		Provider: v.provider,
		Subject:  claims.Subject,
		Email:    strings.ToLower(strings.TrimSpace(claims.Email)),
	}, nil
}
