// Package identity resolves the authenticated caller from an incoming
// request. The pipeline only needs a stable subject plus profile fields;
// token issuance and session management live with the upstream auth service.
package identity

import (
	"fmt"
	"net/http"
	"strings"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/psycho-baller/audora/internal/errs"
)

// Identity describes the authenticated caller.
type Identity struct {
	Subject string
	Name    string
	Email   string
	Picture string
}

// Provider resolves a caller identity, or fails with Unauthenticated.
type Provider interface {
	Resolve(r *http.Request) (*Identity, error)
}

// Claims are the token claims the import service cares about.
type Claims struct {
	gojwt.RegisteredClaims
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// TokenProvider verifies HMAC-signed bearer tokens.
type TokenProvider struct {
	secret []byte
}

func NewTokenProvider(secret string) *TokenProvider {
	return &TokenProvider{secret: []byte(secret)}
}

// Resolve parses the Authorization bearer token and returns the caller
// identity. Anything short of a valid, signed token is Unauthenticated.
func (p *TokenProvider) Resolve(r *http.Request) (*Identity, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return nil, errs.Unauthenticated()
	}

	claims := &Claims{}
	token, err := gojwt.ParseWithClaims(raw, claims, p.keyFunc,
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		e := errs.Unauthenticated()
		e.Cause = err
		return nil, e
	}
	if claims.Subject == "" {
		return nil, errs.Unauthenticated()
	}

	return &Identity{
		Subject: claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Picture: claims.Picture,
	}, nil
}

func (p *TokenProvider) keyFunc(token *gojwt.Token) (any, error) {
	if token.Method.Alg() != gojwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
	}
	return p.secret, nil
}
