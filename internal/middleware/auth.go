package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Mathiasric/snaptosize-app/internal/domain"
)

const tokenIssuer = "snaptosize"

// Claims are the bearer token claims. Subject is the user id.
type Claims struct {
	Plan string `json:"plan,omitempty"`
	jwt.RegisteredClaims
}

type sessionKey struct{}

// SignToken issues an HS256 token for userID.
func SignToken(secret, userID string, plan domain.UserPlan, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("sign token: secret %w", domain.ErrNotConfigured)
	}
	now := time.Now()
	claims := Claims{
		Plan: string(plan),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies signature and expiry and returns the claims.
func ParseToken(secret, token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return &claims, nil
}

// ReadClaims decodes a token without verifying it. Clients use it to learn
// their own user id and plan; the gateway re-verifies every request.
func ReadClaims(token string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	return &claims, nil
}

// Session converts claims into the read-only session an attempt runs under.
// Unknown plan names fall back to free.
func (c *Claims) Session(token string) domain.Session {
	plan, err := domain.ParseUserPlan(c.Plan)
	if err != nil {
		plan = domain.UserPlanFree
	}
	return domain.Session{UserID: c.Subject, Plan: plan, Token: token}
}

// AuthJWT rejects requests without a valid bearer token and stores the
// session in the request context.
func AuthJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			claims, err := ParseToken(secret, token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			ctx := ContextWithSession(r.Context(), claims.Session(token))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken returns the token of an Authorization: Bearer header.
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func ContextWithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(domain.Session)
	return s, ok
}

func UserIDFromContext(ctx context.Context) string {
	s, _ := SessionFromContext(ctx)
	return s.UserID
}
