// Package auth resolves the caller's email address from an HTTP request.
//
// In production the request carries the auth provider's session token as
// "Authorization: Bearer <jwt>", verified against the provider's RS256
// public key. Without a configured key the X-User-Email header is trusted,
// which is only suitable for local development.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// EmailHeader is the header trusted in development mode.
const EmailHeader = "X-User-Email"

var (
	// ErrNoToken is returned when the request carries no bearer token.
	ErrNoToken = errors.New("no bearer token")
	// ErrInvalidToken is returned when a token fails verification.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrNoEmail is returned when a verified token has no email claim.
	ErrNoEmail = errors.New("session token has no email claim")
)

// Verifier checks RS256 session tokens.
type Verifier struct {
	key    any
	issuer string
}

// NewVerifier builds a Verifier from a PEM-encoded RSA public key. A
// non-empty issuer must match the token's iss claim.
func NewVerifier(pemBytes []byte, issuer string) (*Verifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing session public key: %w", err)
	}
	return &Verifier{key: key, issuer: issuer}, nil
}

// LoadVerifier reads the PEM public key at path and calls NewVerifier.
func LoadVerifier(path, issuer string) (*Verifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session public key: %w", err)
	}
	return NewVerifier(data, issuer)
}

// Verify validates tokenString and returns its email claim.
func (v *Verifier) Verify(tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse(tokenString, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	email, _ := claims["email"].(string)
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrNoEmail
	}
	return email, nil
}

// Authenticator identifies callers. A nil verifier selects header mode.
type Authenticator struct {
	verifier *Verifier
}

// New creates an Authenticator. Pass nil to trust the X-User-Email header.
func New(verifier *Verifier) *Authenticator {
	if verifier == nil {
		slog.Warn("no session public key configured: trusting " + EmailHeader + " header")
	}
	return &Authenticator{verifier: verifier}
}

// Identify returns the caller's email, or an error when the request carries
// no usable identity.
func (a *Authenticator) Identify(r *http.Request) (string, error) {
	if a.verifier == nil {
		email := strings.TrimSpace(r.Header.Get(EmailHeader))
		if email == "" {
			return "", ErrNoToken
		}
		return email, nil
	}

	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return a.verifier.Verify(strings.TrimSpace(token))
}

// Middleware stores the caller's email in the request context. Requests
// without a valid identity pass through anonymously; handlers decide
// whether that is acceptable.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, err := a.Identify(r)
		if err != nil {
			if !errors.Is(err, ErrNoToken) {
				slog.Warn("rejected session token", "path", r.URL.Path, "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithEmail(r.Context(), email)))
	})
}

type contextKey struct{}

// WithEmail returns a copy of ctx carrying email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, contextKey{}, email)
}

// EmailFromContext returns the email stored by Middleware, or "".
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(contextKey{}).(string)
	return email
}
