package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Mathiasric/snaptosize-app/internal/domain"
)

func TestSignAndParseToken(t *testing.T) {
	token, err := SignToken("secret", "user-123", domain.UserPlanPro, time.Hour)
	if err != nil {
		t.Fatalf("SignToken() error: %v", err)
	}
	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken() error: %v", err)
	}
	s := claims.Session(token)
	if s.UserID != "user-123" || s.Plan != domain.UserPlanPro || s.Token != token {
		t.Fatalf("session = %+v", s)
	}
}

func TestParseTokenRejects(t *testing.T) {
	expired, _ := SignToken("secret", "u", domain.UserPlanFree, -time.Minute)
	otherKey, _ := SignToken("other", "u", domain.UserPlanFree, time.Hour)
	noSubject, _ := SignToken("secret", "", domain.UserPlanFree, time.Hour)
	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"}).SignedString([]byte("secret"))
	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{"sub": "u", "exp": time.Now().Add(time.Hour).Unix()}).SignedString([]byte("secret"))

	tests := map[string]string{
		"expired":    expired,
		"other key":  otherKey,
		"no subject": noSubject,
		"no expiry":  noExpiry,
		"wrong alg":  wrongAlg,
		"garbage":    "a.b.c",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseToken("secret", token); !errors.Is(err, domain.ErrUnauthorized) {
				t.Fatalf("ParseToken() err = %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestSignTokenRequiresSecret(t *testing.T) {
	if _, err := SignToken("", "u", domain.UserPlanFree, time.Hour); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadClaimsUnverified(t *testing.T) {
	token, _ := SignToken("server-only", "user-9", domain.UserPlanFree, time.Hour)
	claims, err := ReadClaims(token)
	if err != nil {
		t.Fatalf("ReadClaims() error: %v", err)
	}
	if claims.Subject != "user-9" {
		t.Fatalf("subject = %q", claims.Subject)
	}
	if claims.Session(token).Plan != domain.UserPlanFree {
		t.Fatalf("plan = %q", claims.Plan)
	}

	claims.Plan = "platinum"
	if got := claims.Session(token).Plan; got != domain.UserPlanFree {
		t.Fatalf("unknown plan mapped to %q, want free", got)
	}
}

func TestAuthJWT(t *testing.T) {
	token, _ := SignToken("secret", "user-1", domain.UserPlanPro, time.Hour)
	var seen domain.Session
	h := AuthJWT("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"basic", "Basic dXNlcjpwdw==", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen = domain.Session{}
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusUnauthorized {
				if !strings.Contains(rec.Body.String(), `"error":"Unauthorized"`) {
					t.Fatalf("body = %s", rec.Body.String())
				}
				return
			}
			if seen.UserID != "user-1" || !seen.IsPro() {
				t.Fatalf("session = %+v", seen)
			}
		})
	}
}

func TestResolveCountry(t *testing.T) {
	lookup := func(ip string) (string, error) {
		if ip == "203.0.113.7" {
			return "dk", nil
		}
		return "", errors.New("not found")
	}

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		lookup  CountryLookup
		want    string
	}{
		{"proxy header", map[string]string{"CF-IPCountry": "no"}, "203.0.113.7:1", lookup, "NO"},
		{"unknown marker ignored", map[string]string{"CF-IPCountry": "XX"}, "203.0.113.7:1", lookup, "DK"},
		{"geoip", nil, "203.0.113.7:1", lookup, "DK"},
		{"forwarded ip", map[string]string{"X-Forwarded-For": "203.0.113.7"}, "10.0.0.1:1", lookup, "DK"},
		{"lookup error", nil, "198.51.100.1:1", lookup, ""},
		{"no lookup", nil, "203.0.113.7:1", nil, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := ResolveCountry(req, tc.lookup); got != tc.want {
				t.Fatalf("ResolveCountry() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCountryMiddleware(t *testing.T) {
	var got string
	h := Country(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CountryFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Country-Code", "se")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "SE" {
		t.Fatalf("country = %q, want SE", got)
	}
}

func TestRequestID(t *testing.T) {
	var inCtx string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inCtx = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if inCtx != "client-id" || rec.Header().Get(RequestIDHeader) != "client-id" {
		t.Fatalf("request id = %q / %q", inCtx, rec.Header().Get(RequestIDHeader))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if inCtx == "" || inCtx == "client-id" || rec.Header().Get(RequestIDHeader) != inCtx {
		t.Fatalf("generated id = %q, header %q", inCtx, rec.Header().Get(RequestIDHeader))
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Fatalf("allow origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("foreign origin allowed")
	}
}
