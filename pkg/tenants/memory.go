// pkg/tenants/memory.go
package tenants

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// memStore implements Store in process memory. Used when DATABASE_URL is not
// set (dev) and by tests.
type memStore struct {
	log *zap.SugaredLogger

	mu     sync.RWMutex
	byShop map[string]Tenant
}

func NewMemoryStore(log *zap.SugaredLogger) Store {
	return &memStore{log: log, byShop: map[string]Tenant{}}
}

// NewMemoryStoreFromEnv seeds a memory store from TENANT_SEED_JSON (same
// format as SeedFromEnv).
func NewMemoryStoreFromEnv(log *zap.SugaredLogger) Store {
	m := &memStore{log: log, byShop: map[string]Tenant{}}
	seed := os.Getenv("TENANT_SEED_JSON")
	if seed == "" {
		return m
	}
	var entries []struct {
		Shop           string            `json:"shop"`
		MinOrderValue  *int64            `json:"min_order_value"`
		Surcharge      int64             `json:"surcharge"`
		SurchargeLabel map[string]string `json:"surcharge_label"`
	}
	if err := json.Unmarshal([]byte(seed), &entries); err != nil {
		log.Warnw("tenant seed", "err", err)
		return m
	}
	for _, e := range entries {
		label := e.SurchargeLabel
		if label == nil {
			label = map[string]string{}
		}
		m.byShop[e.Shop] = Tenant{Shop: e.Shop, MinOrderValue: e.MinOrderValue, Surcharge: e.Surcharge, SurchargeLabel: label}
	}
	return m
}

func (m *memStore) FindByShop(ctx context.Context, shop string) (Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.byShop[shop]; ok {
		return copyTenant(t), nil
	}
	return Tenant{}, ErrNotFound
}

func (m *memStore) ListShops(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	shops := make([]string, 0, len(m.byShop))
	for s := range m.byShop {
		shops = append(shops, s)
	}
	sort.Strings(shops)
	return shops, nil
}

func (m *memStore) UpsertCredentials(ctx context.Context, shop string, ciphertext []byte) (Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.byShop[shop]
	t.Shop = shop
	t.AccessToken = append([]byte(nil), ciphertext...)
	if t.SurchargeLabel == nil {
		t.SurchargeLabel = map[string]string{}
	}
	m.byShop[shop] = t
	return copyTenant(t), nil
}

func (m *memStore) UpsertConfig(ctx context.Context, shop string, minOrderValue, surcharge int64, label map[string]string) (Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.byShop[shop]
	t.Shop = shop
	mv := minOrderValue
	t.MinOrderValue = &mv
	t.Surcharge = surcharge
	t.SurchargeLabel = map[string]string{}
	for k, v := range label {
		t.SurchargeLabel[k] = v
	}
	m.byShop[shop] = t
	return copyTenant(t), nil
}

// copyTenant returns a value the caller may mutate without racing the map.
func copyTenant(t Tenant) Tenant {
	out := t
	out.AccessToken = append([]byte(nil), t.AccessToken...)
	out.SurchargeLabel = map[string]string{}
	for k, v := range t.SurchargeLabel {
		out.SurchargeLabel[k] = v
	}
	if t.MinOrderValue != nil {
		mv := *t.MinOrderValue
		out.MinOrderValue = &mv
	}
	return out
}
