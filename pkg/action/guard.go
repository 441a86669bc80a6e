package action

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	perrors "github.com/jmgilman/go/errors"
)

const (
	// TokenCookie carries the submission token for browsers without an
	// Authorization header.
	TokenCookie = "profileform_token"
	// WriteScope is the scope a token needs to submit profiles.
	WriteScope = "profile:write"
)

// Request is the submitted form plus the request metadata guards inspect.
type Request struct {
	Values  url.Values
	Header  http.Header
	Cookies []*http.Cookie
}

// Cookie returns the named cookie value, or "".
func (r Request) Cookie(name string) string {
	for _, c := range r.Cookies {
		if c != nil && c.Name == name {
			return c.Value
		}
	}
	return ""
}

// Guard decides whether a request may submit. A non-nil error is reported as
// a permission failure when its code is FORBIDDEN or UNAUTHORIZED.
type Guard interface {
	Check(ctx context.Context, req Request) error
}

// GuardFunc adapts a function to the Guard interface.
type GuardFunc func(ctx context.Context, req Request) error

// Check implements Guard.
func (fn GuardFunc) Check(ctx context.Context, req Request) error {
	return fn(ctx, req)
}

// ReadOnly rejects every submission while enabled.
func ReadOnly(enabled bool, message string) Guard {
	if strings.TrimSpace(message) == "" {
		message = "Profile submissions are temporarily disabled."
	}
	return GuardFunc(func(context.Context, Request) error {
		if !enabled {
			return nil
		}
		return perrors.New(perrors.CodeForbidden, message)
	})
}

// Claims are the JWT claims accepted by TokenGuard. Scope is a space
// separated list.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// HasScope reports whether the claims grant scope.
func (c Claims) HasScope(scope string) bool {
	return slices.Contains(strings.Fields(c.Scope), scope)
}

// TokenGuardOption customises a token guard.
type TokenGuardOption func(*tokenGuard)

// WithTokenClock overrides the clock used for expiry checks.
func WithTokenClock(now func() time.Time) TokenGuardOption {
	return func(g *tokenGuard) {
		if now != nil {
			g.now = now
		}
	}
}

// WithTokenLeeway allows clock skew when validating expiry.
func WithTokenLeeway(leeway time.Duration) TokenGuardOption {
	return func(g *tokenGuard) {
		g.leeway = leeway
	}
}

type tokenGuard struct {
	secret []byte
	now    func() time.Time
	leeway time.Duration
}

// TokenGuard requires an HS256 token signed with secret carrying WriteScope,
// read from the bearer Authorization header or the TokenCookie cookie.
func TokenGuard(secret string, opts ...TokenGuardOption) Guard {
	g := &tokenGuard{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *tokenGuard) Check(_ context.Context, req Request) error {
	raw := bearerToken(req.Header)
	if raw == "" {
		raw = req.Cookie(TokenCookie)
	}
	if raw == "" {
		return perrors.New(perrors.CodeUnauthorized, "Sign in to submit your profile.")
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(g.leeway),
		jwt.WithTimeFunc(g.now),
	)
	claims := &Claims{}
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return perrors.Wrap(err, perrors.CodeForbidden, "Your session is not valid. Sign in again to submit.")
	}
	if !claims.HasScope(WriteScope) {
		return perrors.New(perrors.CodeForbidden, PermissionMessage)
	}
	return nil
}

func bearerToken(header http.Header) string {
	value := strings.TrimSpace(header.Get("Authorization"))
	if len(value) < len("Bearer ") || !strings.EqualFold(value[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(value[len("Bearer "):])
}

// IssueToken signs a token for subject granting scopes, valid for ttl.
func IssueToken(secret, subject string, scopes []string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("action: token secret is required")
	}
	claims := &Claims{
		Scope: strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("action: sign token: %w", err)
	}
	return signed, nil
}
