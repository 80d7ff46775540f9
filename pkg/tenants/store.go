package tenants

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no tenant record exists for a shop.
var ErrNotFound = errors.New("tenant not found")

type Store interface {
	// FindByShop returns the tenant for a shop domain, or ErrNotFound.
	FindByShop(ctx context.Context, shop string) (Tenant, error)
	// ListShops returns every registered shop domain. Used to derive the
	// cross-origin allow-list, so it must reflect the current persisted set.
	ListShops(ctx context.Context) ([]string, error)
	// UpsertCredentials creates the record if absent, else replaces only the
	// stored credential. Configuration fields are left untouched.
	UpsertCredentials(ctx context.Context, shop string, ciphertext []byte) (Tenant, error)
	// UpsertConfig creates the record if absent, else replaces only the
	// configuration fields. The stored credential is left untouched.
	UpsertConfig(ctx context.Context, shop string, minOrderValue, surcharge int64, label map[string]string) (Tenant, error)
}
