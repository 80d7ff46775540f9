package tenants

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func TestFindByShopNotFound(t *testing.T) {
	store := NewMemoryStore(zap.NewNop().Sugar())
	if _, err := store.FindByShop(context.Background(), "nope.myshopify.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpsertsMergeDisjointFields(t *testing.T) {
	store := NewMemoryStore(zap.NewNop().Sugar())
	ctx := context.Background()

	if _, err := store.UpsertCredentials(ctx, "acme.myshopify.com", []byte("ct1")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.UpsertConfig(ctx, "acme.myshopify.com", 5000, 500, map[string]string{"en": "fee"}); err != nil {
		t.Fatal(err)
	}
	// Credential refresh must not clobber config and vice versa.
	if _, err := store.UpsertCredentials(ctx, "acme.myshopify.com", []byte("ct2")); err != nil {
		t.Fatal(err)
	}

	got, err := store.FindByShop(ctx, "acme.myshopify.com")
	if err != nil {
		t.Fatal(err)
	}
	if string(got.AccessToken) != "ct2" {
		t.Errorf("token = %q, want ct2", got.AccessToken)
	}
	if !got.Configured() || *got.MinOrderValue != 5000 || got.Surcharge != 500 {
		t.Errorf("config = %+v", got)
	}

	shops, _ := store.ListShops(ctx)
	if len(shops) != 1 {
		t.Errorf("shops = %v, want one record", shops)
	}
}

func TestReturnedTenantIsACopy(t *testing.T) {
	store := NewMemoryStore(zap.NewNop().Sugar())
	ctx := context.Background()
	if _, err := store.UpsertConfig(ctx, "acme.myshopify.com", 5000, 500, map[string]string{"en": "fee"}); err != nil {
		t.Fatal(err)
	}
	got, _ := store.FindByShop(ctx, "acme.myshopify.com")
	got.SurchargeLabel["en"] = "mutated"
	*got.MinOrderValue = 1

	again, _ := store.FindByShop(ctx, "acme.myshopify.com")
	if again.SurchargeLabel["en"] != "fee" || *again.MinOrderValue != 5000 {
		t.Errorf("store state leaked through returned value: %+v", again)
	}
}

func TestConcurrentUpsertsDifferentShops(t *testing.T) {
	store := NewMemoryStore(zap.NewNop().Sugar())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			shop := fmt.Sprintf("shop-%d.myshopify.com", i)
			if _, err := store.UpsertCredentials(ctx, shop, []byte("ct")); err != nil {
				t.Errorf("UpsertCredentials(%s): %v", shop, err)
			}
			if _, err := store.UpsertConfig(ctx, shop, int64(i), int64(i), nil); err != nil {
				t.Errorf("UpsertConfig(%s): %v", shop, err)
			}
		}(i)
	}
	wg.Wait()

	shops, _ := store.ListShops(ctx)
	if len(shops) != 20 {
		t.Fatalf("len(shops) = %d, want 20", len(shops))
	}
}
