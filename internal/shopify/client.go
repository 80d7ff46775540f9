// Package shopify talks to the platform on a shop's behalf: the OAuth
// handshake endpoints and the webhook admin API. It holds no state beyond
// app credentials.
package shopify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
)

const apiVersion = "2024-01"

// ErrInvalidCallback marks a callback that failed signature, state or shop
// validation. The HTTP layer maps it to 401.
var ErrInvalidCallback = errors.New("invalid callback")

var shopDomainRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*\.myshopify\.com$`)

// ValidShopDomain reports whether s looks like a platform shop domain.
func ValidShopDomain(s string) bool { return shopDomainRe.MatchString(s) }

type Client struct {
	HTTPClient *http.Client
	APIKey     string
	APISecret  string
}

func NewClient(apiKey, apiSecret string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		APIKey:     apiKey,
		APISecret:  apiSecret,
	}
}

// AuthorizeURL builds the redirect target that starts the handshake for a shop.
func (c *Client) AuthorizeURL(shop, scopes, redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", c.APIKey)
	q.Set("scope", scopes)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	return fmt.Sprintf("https://%s/admin/oauth/authorize?%s", shop, q.Encode())
}

// ValidateCallback checks the signed OAuth callback query and returns the
// shop and authorization code. Signature scheme: hex HMAC-SHA256 of the
// lexically sorted query (hmac and legacy signature params excluded), keyed
// by the app API secret.
func (c *Client) ValidateCallback(query url.Values) (shop, code string, err error) {
	shop = query.Get("shop")
	code = query.Get("code")
	if shop == "" || code == "" || !ValidShopDomain(shop) {
		return "", "", fmt.Errorf("%w: missing or bad shop/code", ErrInvalidCallback)
	}
	given := query.Get("hmac")
	if given == "" || !hmac.Equal([]byte(callbackHMAC(query, c.APISecret)), []byte(given)) {
		return "", "", fmt.Errorf("%w: hmac mismatch", ErrInvalidCallback)
	}
	return shop, code, nil
}

func callbackHMAC(query url.Values, secret string) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		if k == "hmac" || k == "signature" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(query[k], ","))
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

// ExchangeCode trades an authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, shop, code string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"client_id":     c.APIKey,
		"client_secret": c.APISecret,
		"code":          code,
	})
	u := fmt.Sprintf("https://%s/admin/oauth/access_token", shop)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("token exchange failed: status=%d", resp.StatusCode)
	}
	var r accessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	if r.AccessToken == "" {
		return "", errors.New("token exchange returned empty access_token")
	}
	return r.AccessToken, nil
}

// RegisterWebhook subscribes one topic for a shop. Callers treat failures as
// per-topic, not fatal to the overall authorization.
func (c *Client) RegisterWebhook(ctx context.Context, shop, token, topic, address string) error {
	body, _ := json.Marshal(map[string]any{
		"webhook": map[string]string{"topic": topic, "address": address, "format": "json"},
	})
	u := fmt.Sprintf("https://%s/admin/api/%s/webhooks.json", shop, apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s: status=%d", topic, resp.StatusCode)
	}
	return nil
}

// VerifyWebhookHMAC checks an inbound webhook body against the
// X-Shopify-Hmac-Sha256 header (base64 HMAC keyed by the API secret).
func VerifyWebhookHMAC(secret string, body []byte, header string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
