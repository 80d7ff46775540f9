package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strings"
	"testing"
)

func signQuery(q url.Values, secret string) {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+q.Get(k))
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "&")))
	q.Set("hmac", hex.EncodeToString(mac.Sum(nil)))
}

func TestValidShopDomain(t *testing.T) {
	tests := []struct {
		shop string
		want bool
	}{
		{"acme.myshopify.com", true},
		{"a-1.myshopify.com", true},
		{"evil.example.com", false},
		{"acme.myshopify.com.evil.com", false},
		{"-acme.myshopify.com", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.shop, func(t *testing.T) {
			if got := ValidShopDomain(tt.shop); got != tt.want {
				t.Errorf("ValidShopDomain(%q) = %v, want %v", tt.shop, got, tt.want)
			}
		})
	}
}

func TestValidateCallback(t *testing.T) {
	c := NewClient("key", "secret")

	q := url.Values{}
	q.Set("shop", "acme.myshopify.com")
	q.Set("code", "authcode123")
	q.Set("state", "nonce")
	q.Set("timestamp", "1700000000")
	signQuery(q, "secret")

	shop, code, err := c.ValidateCallback(q)
	if err != nil {
		t.Fatalf("ValidateCallback: %v", err)
	}
	if shop != "acme.myshopify.com" || code != "authcode123" {
		t.Errorf("got shop=%q code=%q", shop, code)
	}
}

func TestValidateCallbackRejects(t *testing.T) {
	c := NewClient("key", "secret")
	base := func() url.Values {
		q := url.Values{}
		q.Set("shop", "acme.myshopify.com")
		q.Set("code", "authcode123")
		signQuery(q, "secret")
		return q
	}

	tests := []struct {
		name   string
		mutate func(url.Values) url.Values
	}{
		{"wrong secret", func(q url.Values) url.Values {
			q.Del("hmac")
			signQuery(q, "other-secret")
			return q
		}},
		{"tampered shop", func(q url.Values) url.Values {
			q.Set("shop", "mallory.myshopify.com")
			return q
		}},
		{"missing hmac", func(q url.Values) url.Values {
			q.Del("hmac")
			return q
		}},
		{"missing code", func(q url.Values) url.Values {
			q.Del("code")
			return q
		}},
		{"non-platform shop", func(q url.Values) url.Values {
			q.Set("shop", "evil.example.com")
			q.Del("hmac")
			signQuery(q, "secret")
			return q
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := c.ValidateCallback(tt.mutate(base())); !errors.Is(err, ErrInvalidCallback) {
				t.Errorf("err = %v, want ErrInvalidCallback", err)
			}
		})
	}
}

func TestAuthorizeURL(t *testing.T) {
	c := NewClient("key123", "secret")
	raw := c.AuthorizeURL("acme.myshopify.com", "read_orders", "https://app.example.com/auth/callback", "nonce42")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Host != "acme.myshopify.com" || u.Path != "/admin/oauth/authorize" {
		t.Errorf("unexpected target %s", raw)
	}
	q := u.Query()
	if q.Get("client_id") != "key123" || q.Get("state") != "nonce42" || q.Get("scope") != "read_orders" {
		t.Errorf("unexpected query %v", q)
	}
}

func TestVerifyWebhookHMAC(t *testing.T) {
	body := []byte(`{"shop_domain":"acme.myshopify.com"}`)
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(body)
	good := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !VerifyWebhookHMAC("secret", body, good) {
		t.Error("valid signature rejected")
	}
	if VerifyWebhookHMAC("secret", body, "bogus") {
		t.Error("bogus signature accepted")
	}
	if VerifyWebhookHMAC("other", body, good) {
		t.Error("wrong key accepted")
	}
}
