// pkg/middleware/sessiontoken.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"minorder/pkg/httpx"
)

type ctxShopKey struct{}

// SessionToken validates the platform session token carried by embedded
// admin-UI calls (HS256 signed with the app API secret, audience = API key,
// "dest" claim names the shop). When no secret is configured the bearer check
// is skipped and an X-Shop header is accepted instead, dev only.
func SessionToken(apiKey, apiSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiSecret == "" {
				if shop := strings.TrimSpace(r.Header.Get("X-Shop")); shop != "" {
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxShopKey{}, shop)))
					return
				}
				httpx.WriteError(w, "missing shop", http.StatusBadRequest)
				return
			}
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				httpx.WriteError(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			tok := strings.TrimSpace(authz[len("Bearer "):])
			jt, err := jwt.Parse([]byte(tok),
				jwt.WithKey(jwa.HS256, []byte(apiSecret)),
				jwt.WithAudience(apiKey),
				jwt.WithValidate(true),
			)
			if err != nil {
				httpx.WriteError(w, "invalid token", http.StatusUnauthorized)
				return
			}
			dest, _ := jt.Get("dest")
			shop := strings.TrimPrefix(strings.TrimSpace(stringClaim(dest)), "https://")
			if shop == "" {
				httpx.WriteError(w, "missing shop", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxShopKey{}, shop)))
		})
	}
}

// ShopFrom returns the authenticated shop domain, or "" outside SessionToken.
func ShopFrom(ctx context.Context) string {
	if v := ctx.Value(ctxShopKey{}); v != nil {
		return v.(string)
	}
	return ""
}

func stringClaim(v any) string {
	s, _ := v.(string)
	return s
}
