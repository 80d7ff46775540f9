// Package surcharge computes the minimum-order surcharge for a cart. All
// monetary values are integer minor units (cents), so totals are exact over
// any number of line items.
package surcharge

import (
	"context"
	"fmt"

	"minorder/pkg/tenants"
)

type LineItem struct {
	Price    int64 `json:"price"`    // minor units per unit
	Quantity int64 `json:"quantity"` // positive
}

type Cart struct {
	Items []LineItem `json:"items"`
}

// Decision is what the storefront checkout renders. Label is only present
// when a surcharge applies.
type Decision struct {
	Surcharge int64             `json:"surcharge"`
	Label     map[string]string `json:"label,omitempty"`
}

// ValidateCart enforces the evaluation preconditions with field detail.
func ValidateCart(cart Cart) error {
	if len(cart.Items) == 0 {
		return fmt.Errorf("cart.items must not be empty")
	}
	for i, it := range cart.Items {
		if it.Price < 0 {
			return fmt.Errorf("cart.items[%d].price must be >= 0", i)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("cart.items[%d].quantity must be >= 1", i)
		}
	}
	return nil
}

// Total sums price*quantity over the cart.
func Total(cart Cart) int64 {
	var total int64
	for _, it := range cart.Items {
		total += it.Price * it.Quantity
	}
	return total
}

// Decide is the pure rule: an unconfigured tenant never surcharges; a cart
// strictly below the threshold gets the configured surcharge; a cart at or
// above it does not.
func Decide(t tenants.Tenant, cart Cart) Decision {
	if !t.Configured() {
		return Decision{}
	}
	if Total(cart) < *t.MinOrderValue {
		d := Decision{Surcharge: t.Surcharge}
		if len(t.SurchargeLabel) > 0 {
			d.Label = t.SurchargeLabel
		}
		return d
	}
	return Decision{}
}

// Engine resolves the shop's configuration and applies Decide.
type Engine struct {
	store tenants.Store
}

func NewEngine(store tenants.Store) *Engine {
	return &Engine{store: store}
}

func (e *Engine) Evaluate(ctx context.Context, shop string, cart Cart) (Decision, error) {
	t, err := e.store.FindByShop(ctx, shop)
	if err != nil {
		return Decision{}, err
	}
	return Decide(t, cart), nil
}
