package tenants

// Tenant is one connected shop: its stored platform credential plus the
// surcharge configuration its storefront checkout consults.
type Tenant struct {
	Shop        string // shop domain (acme.myshopify.com), primary key
	AccessToken []byte // ciphertext of the platform access token, never plaintext

	// Surcharge configuration. MinOrderValue nil means "not configured yet",
	// which is distinct from a configured zero. Monetary values are integer
	// minor units (cents).
	MinOrderValue  *int64
	Surcharge      int64
	SurchargeLabel map[string]string // language code -> display text
}

// Configured reports whether the shop has set up a surcharge rule.
func (t Tenant) Configured() bool { return t.MinOrderValue != nil }
