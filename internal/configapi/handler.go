package configapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"minorder/pkg/httpx"
	"minorder/pkg/middleware"
	"minorder/pkg/tenants"
)

type Handler struct {
	log *zap.SugaredLogger
	svc *Service
}

func NewHandler(log *zap.SugaredLogger, svc *Service) *Handler {
	return &Handler{log: log, svc: svc}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/set-config", h.setConfig)
	r.Get("/config", h.getConfig)
}

type setConfigRequest struct {
	Shop           string            `json:"shop"`
	MinOrderValue  *int64            `json:"minOrderValue"`
	Surcharge      *int64            `json:"surcharge"`
	SurchargeLabel map[string]string `json:"surchargeLabel"`
}

type configResponse struct {
	Shop           string            `json:"shop"`
	MinOrderValue  *int64            `json:"minOrderValue"`
	Surcharge      int64             `json:"surcharge"`
	SurchargeLabel map[string]string `json:"surchargeLabel"`
}

// POST /set-config
func (h *Handler) setConfig(w http.ResponseWriter, r *http.Request) {
	var body setConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, "bad json", http.StatusBadRequest)
		return
	}
	if body.Shop == "" {
		httpx.WriteError(w, "shop is required", http.StatusBadRequest)
		return
	}
	if auth := middleware.ShopFrom(r.Context()); auth != "" && auth != body.Shop {
		httpx.WriteError(w, "shop mismatch", http.StatusForbidden)
		return
	}
	if body.MinOrderValue == nil {
		httpx.WriteError(w, "minOrderValue is required", http.StatusBadRequest)
		return
	}
	if body.Surcharge == nil {
		httpx.WriteError(w, "surcharge is required", http.StatusBadRequest)
		return
	}
	_, err := h.svc.SetConfiguration(r.Context(), body.Shop, *body.MinOrderValue, *body.Surcharge, body.SurchargeLabel)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			httpx.WriteError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, tenants.ErrNotFound):
			httpx.WriteError(w, "Shop not registered", http.StatusBadRequest)
		default:
			h.log.Errorw("set-config", "shop", body.Shop, "err", err)
			httpx.WriteError(w, "store unavailable", http.StatusServiceUnavailable)
		}
		return
	}
	httpx.WriteJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

// GET /config?shop=acme.myshopify.com
func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		shop = middleware.ShopFrom(r.Context())
	}
	if shop == "" {
		httpx.WriteError(w, "shop is required", http.StatusBadRequest)
		return
	}
	t, err := h.svc.GetConfiguration(r.Context(), shop)
	if err != nil {
		if errors.Is(err, tenants.ErrNotFound) {
			httpx.WriteError(w, "Shop not registered", http.StatusBadRequest)
			return
		}
		h.log.Errorw("get-config", "shop", shop, "err", err)
		httpx.WriteError(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	httpx.WriteJSON(w, configResponse{
		Shop:           t.Shop,
		MinOrderValue:  t.MinOrderValue,
		Surcharge:      t.Surcharge,
		SurchargeLabel: t.SurchargeLabel,
	}, http.StatusOK)
}
