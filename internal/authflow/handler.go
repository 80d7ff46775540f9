package authflow

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"minorder/internal/shopify"
	"minorder/pkg/httpx"
)

type Handler struct {
	log     *zap.SugaredLogger
	svc     *Service
	landing string // path on the shop admin to land on after install
}

func NewHandler(log *zap.SugaredLogger, svc *Service, landingPath string) *Handler {
	return &Handler{log: log, svc: svc, landing: landingPath}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/auth", h.begin)
	r.Get("/auth/callback", h.callback)
}

// GET /auth?shop=acme.myshopify.com
func (h *Handler) begin(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")
	redirect, err := h.svc.Begin(r.Context(), shop)
	if err != nil {
		if errors.Is(err, ErrBadShop) {
			httpx.WriteError(w, "missing or invalid shop parameter", http.StatusBadRequest)
			return
		}
		h.log.Errorw("auth begin", "shop", shop, "err", err)
		httpx.WriteError(w, "authorization unavailable", http.StatusServiceUnavailable)
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

// GET /auth/callback?shop=...&code=...&state=...&hmac=...
func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Complete(r.Context(), r.URL.Query())
	if err != nil {
		if errors.Is(err, shopify.ErrInvalidCallback) {
			h.log.Warnw("auth callback rejected", "err", err)
			httpx.WriteError(w, "invalid callback", http.StatusUnauthorized)
			return
		}
		h.log.Errorw("auth callback", "err", err)
		httpx.WriteError(w, "authorization failed", http.StatusInternalServerError)
		return
	}
	h.log.Infow("shop authorized", "shop", t.Shop)
	http.Redirect(w, r, "https://"+t.Shop+h.landing, http.StatusFound)
}
