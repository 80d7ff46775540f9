// Package gdprapi acknowledges the platform's mandatory data-request and
// data-erasure webhooks. The actual export/erasure work is an external
// collaborator contract; these endpoints verify the delivery and confirm
// receipt synchronously.
package gdprapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"minorder/internal/shopify"
	"minorder/pkg/httpx"
)

type Handler struct {
	log       *zap.SugaredLogger
	apiSecret string
}

func NewHandler(log *zap.SugaredLogger, apiSecret string) *Handler {
	return &Handler{log: log, apiSecret: apiSecret}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/shopify/gdpr/customers-data-request", h.ack("customers-data-request"))
	r.Post("/shopify/gdpr/customers-data-delete", h.ack("customers-data-delete"))
	r.Post("/shopify/gdpr/shop-data-delete", h.ack("shop-data-delete"))
}

type webhookPayload struct {
	ShopDomain string `json:"shop_domain"`
}

func (h *Handler) ack(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			httpx.WriteError(w, "bad body", http.StatusBadRequest)
			return
		}
		if h.apiSecret != "" {
			sig := r.Header.Get("X-Shopify-Hmac-Sha256")
			if !shopify.VerifyWebhookHMAC(h.apiSecret, body, sig) {
				h.log.Warnw("gdpr webhook signature rejected", "kind", kind)
				httpx.WriteError(w, "invalid signature", http.StatusUnauthorized)
				return
			}
		}
		var p webhookPayload
		_ = json.Unmarshal(body, &p)
		h.log.Infow("gdpr webhook acknowledged", "kind", kind, "shop", p.ShopDomain)
		httpx.WriteJSON(w, map[string]bool{"received": true}, http.StatusOK)
	}
}
