// Package authflow drives the per-shop OAuth handshake: it issues the
// redirect that starts authorization, validates the signed callback, persists
// the encrypted credential and registers webhooks.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"minorder/internal/shopify"
	"minorder/pkg/secrets"
	"minorder/pkg/tenants"
)

// ErrBadShop marks a begin-authorization request naming a domain that is not
// a platform shop.
var ErrBadShop = errors.New("invalid shop domain")

// Provider is the slice of the platform client this flow needs.
type Provider interface {
	AuthorizeURL(shop, scopes, redirectURI, state string) string
	ValidateCallback(query url.Values) (shop, code string, err error)
	ExchangeCode(ctx context.Context, shop, code string) (string, error)
	RegisterWebhook(ctx context.Context, shop, token, topic, address string) error
}

type Service struct {
	log      *zap.SugaredLogger
	store    tenants.Store
	cipher   *secrets.Cipher
	provider Provider
	states   StateStore

	appURL        string
	scopes        string
	webhookTopics []string
}

func NewService(log *zap.SugaredLogger, store tenants.Store, cipher *secrets.Cipher, provider Provider, states StateStore, appURL, scopes string, webhookTopics []string) *Service {
	return &Service{
		log: log, store: store, cipher: cipher, provider: provider, states: states,
		appURL: appURL, scopes: scopes, webhookTopics: webhookTopics,
	}
}

// Begin returns the authorize redirect for a shop. No tenant state is written
// yet; only the state nonce is issued.
func (s *Service) Begin(ctx context.Context, shop string) (string, error) {
	if !shopify.ValidShopDomain(shop) {
		return "", fmt.Errorf("%w: %q", ErrBadShop, shop)
	}
	state, err := s.states.Issue(ctx, shop)
	if err != nil {
		return "", fmt.Errorf("issue state: %w", err)
	}
	return s.provider.AuthorizeURL(shop, s.scopes, s.appURL+"/auth/callback", state), nil
}

// Complete validates the callback, exchanges the code, stores the encrypted
// credential and registers webhooks. Repeating the callback for a shop simply
// refreshes its credential. Webhook registration failures are per-topic and
// never demote an otherwise successful authorization.
func (s *Service) Complete(ctx context.Context, query url.Values) (tenants.Tenant, error) {
	shop, code, err := s.provider.ValidateCallback(query)
	if err != nil {
		return tenants.Tenant{}, err
	}
	boundShop, ok := s.states.Redeem(ctx, query.Get("state"))
	if !ok || boundShop != shop {
		return tenants.Tenant{}, fmt.Errorf("%w: unknown or replayed state", shopify.ErrInvalidCallback)
	}

	token, err := s.provider.ExchangeCode(ctx, shop, code)
	if err != nil {
		return tenants.Tenant{}, fmt.Errorf("exchange code: %w", err)
	}
	ciphertext, err := s.cipher.Encrypt(token)
	if err != nil {
		return tenants.Tenant{}, err
	}
	t, err := s.store.UpsertCredentials(ctx, shop, ciphertext)
	if err != nil {
		return tenants.Tenant{}, fmt.Errorf("persist tenant: %w", err)
	}

	s.registerWebhooks(shop, token)
	return t, nil
}

func (s *Service) registerWebhooks(shop, token string) {
	for _, topic := range s.webhookTopics {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.provider.RegisterWebhook(ctx, shop, token, topic, s.webhookAddress(topic))
		cancel()
		if err != nil {
			s.log.Warnw("webhook registration", "shop", shop, "topic", topic, "err", err)
			continue
		}
		s.log.Infow("webhook registered", "shop", shop, "topic", topic)
	}
}

func (s *Service) webhookAddress(topic string) string {
	switch topic {
	case "customers/data_request":
		return s.appURL + "/shopify/gdpr/customers-data-request"
	case "customers/redact":
		return s.appURL + "/shopify/gdpr/customers-data-delete"
	case "shop/redact":
		return s.appURL + "/shopify/gdpr/shop-data-delete"
	default:
		return s.appURL + "/shopify/webhooks/" + url.PathEscape(topic)
	}
}
