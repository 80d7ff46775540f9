// pkg/middleware/origin.go
package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"minorder/pkg/httpx"
	"minorder/pkg/tenants"
)

// ShopOrigin enforces the cross-origin policy: requests without an Origin
// header pass untouched; cross-origin requests are allowed only when the
// origin is in the static override list or equals https://{shop} for a
// registered shop. The shop set is read fresh on every request so a newly
// authorized tenant is permitted without a restart. If the tenant list cannot
// be read, cross-origin requests are denied (fail closed).
func ShopOrigin(store tenants.Store, static []string, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	inStatic := func(origin string) bool {
		for _, a := range static {
			a = strings.TrimSpace(a)
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			allowed := inStatic(origin)
			if !allowed {
				shops, err := store.ListShops(r.Context())
				if err != nil {
					log.Errorw("origin allow-list", "err", err)
					httpx.WriteError(w, "origin not allowed", http.StatusForbidden)
					return
				}
				for _, s := range shops {
					if origin == "https://"+s {
						allowed = true
						break
					}
				}
			}
			if !allowed {
				httpx.WriteError(w, "origin not allowed", http.StatusForbidden)
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Shop")
			w.Header().Set("Access-Control-Max-Age", "86400")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
