// Package configapi validates and stores a shop's surcharge configuration.
package configapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"minorder/pkg/tenants"
)

// ErrValidation marks a rejected configuration; the wrapped message carries
// the field detail.
var ErrValidation = errors.New("validation error")

type Service struct {
	store tenants.Store
}

func NewService(store tenants.Store) *Service {
	return &Service{store: store}
}

// SetConfiguration validates and upserts a shop's surcharge settings. The
// shop must already have completed authorization: configuration never creates
// a tenant, since the origin allow-list derives from the tenant set.
func (s *Service) SetConfiguration(ctx context.Context, shop string, minOrderValue, surcharge int64, label map[string]string) (tenants.Tenant, error) {
	if minOrderValue < 0 {
		return tenants.Tenant{}, fmt.Errorf("%w: minOrderValue must be >= 0", ErrValidation)
	}
	if surcharge < 0 {
		return tenants.Tenant{}, fmt.Errorf("%w: surcharge must be >= 0", ErrValidation)
	}
	for k := range label {
		if strings.TrimSpace(k) == "" {
			return tenants.Tenant{}, fmt.Errorf("%w: surchargeLabel keys must not be empty", ErrValidation)
		}
	}
	if _, err := s.store.FindByShop(ctx, shop); err != nil {
		return tenants.Tenant{}, err
	}
	return s.store.UpsertConfig(ctx, shop, minOrderValue, surcharge, label)
}

// GetConfiguration returns the current settings for a shop. Credential fields
// never leave the store through this path.
func (s *Service) GetConfiguration(ctx context.Context, shop string) (tenants.Tenant, error) {
	t, err := s.store.FindByShop(ctx, shop)
	if err != nil {
		return tenants.Tenant{}, err
	}
	t.AccessToken = nil
	return t, nil
}
