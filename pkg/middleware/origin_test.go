package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"minorder/pkg/tenants"
)

// failingStore simulates an unreachable tenant store.
type failingStore struct{ tenants.Store }

func (failingStore) ListShops(ctx context.Context) ([]string, error) {
	return nil, errors.New("store down")
}

func originRequest(h http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/check-cart", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestShopOrigin(t *testing.T) {
	log := zap.NewNop().Sugar()
	store := tenants.NewMemoryStore(log)
	if _, err := store.UpsertCredentials(context.Background(), "acme.myshopify.com", []byte("ct")); err != nil {
		t.Fatal(err)
	}
	mw := ShopOrigin(store, []string{"https://admin.example.com"}, log)(okHandler())

	tests := []struct {
		name   string
		origin string
		want   int
	}{
		{"no origin header", "", http.StatusOK},
		{"registered shop", "https://acme.myshopify.com", http.StatusOK},
		{"static override", "https://admin.example.com", http.StatusOK},
		{"unknown shop", "https://mallory.myshopify.com", http.StatusForbidden},
		{"http scheme not derived", "http://acme.myshopify.com", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := originRequest(mw, tt.origin)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && tt.origin != "" &&
				rec.Header().Get("Access-Control-Allow-Origin") != tt.origin {
				t.Errorf("Allow-Origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestShopOriginSeesNewTenantsImmediately(t *testing.T) {
	log := zap.NewNop().Sugar()
	store := tenants.NewMemoryStore(log)
	mw := ShopOrigin(store, nil, log)(okHandler())

	if rec := originRequest(mw, "https://new.myshopify.com"); rec.Code != http.StatusForbidden {
		t.Fatalf("pre-authorization status = %d, want 403", rec.Code)
	}
	if _, err := store.UpsertCredentials(context.Background(), "new.myshopify.com", []byte("ct")); err != nil {
		t.Fatal(err)
	}
	if rec := originRequest(mw, "https://new.myshopify.com"); rec.Code != http.StatusOK {
		t.Fatalf("post-authorization status = %d, want 200", rec.Code)
	}
}

func TestShopOriginFailsClosed(t *testing.T) {
	log := zap.NewNop().Sugar()
	mw := ShopOrigin(failingStore{}, nil, log)(okHandler())

	if rec := originRequest(mw, "https://acme.myshopify.com"); rec.Code != http.StatusForbidden {
		t.Errorf("cross-origin with store down: status = %d, want 403", rec.Code)
	}
	// Same-origin traffic does not depend on the store.
	if rec := originRequest(mw, ""); rec.Code != http.StatusOK {
		t.Errorf("same-origin with store down: status = %d, want 200", rec.Code)
	}
}

func TestShopOriginPreflight(t *testing.T) {
	log := zap.NewNop().Sugar()
	store := tenants.NewMemoryStore(log)
	if _, err := store.UpsertCredentials(context.Background(), "acme.myshopify.com", []byte("ct")); err != nil {
		t.Fatal(err)
	}
	mw := ShopOrigin(store, nil, log)(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/check-cart", nil)
	req.Header.Set("Origin", "https://acme.myshopify.com")
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
}
