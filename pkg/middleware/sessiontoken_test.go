package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

func signSessionToken(t *testing.T, secret, apiKey, dest string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Audience([]string{apiKey}).
		Claim("dest", dest).
		IssuedAt(time.Now()).
		Expiration(exp).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte(secret)))
	if err != nil {
		t.Fatal(err)
	}
	return string(signed)
}

func shopEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ShopFrom(r.Context())))
	})
}

func TestSessionToken(t *testing.T) {
	mw := SessionToken("apikey", "apisecret")(shopEcho())

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/config", nil)
		req.Header.Set("Authorization", "Bearer "+signSessionToken(t, "apisecret", "apikey", "https://acme.myshopify.com", time.Now().Add(time.Minute)))
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		if rec.Body.String() != "acme.myshopify.com" {
			t.Errorf("shop = %q", rec.Body.String())
		}
	})

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", signSessionToken(t, "other", "apikey", "https://acme.myshopify.com", time.Now().Add(time.Minute))},
		{"wrong audience", signSessionToken(t, "apisecret", "otherkey", "https://acme.myshopify.com", time.Now().Add(time.Minute))},
		{"expired", signSessionToken(t, "apisecret", "apikey", "https://acme.myshopify.com", time.Now().Add(-time.Minute))},
		{"garbage", "not-a-token"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/config", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			mw.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestSessionTokenDevFallback(t *testing.T) {
	mw := SessionToken("", "")(shopEcho())

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	req.Header.Set("X-Shop", "dev.myshopify.com")
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "dev.myshopify.com" {
		t.Fatalf("status = %d, body %q", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/config", nil)
	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing X-Shop: status = %d, want 400", rec.Code)
	}
}
