package surcharge

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"minorder/pkg/httpx"
	"minorder/pkg/tenants"
)

type Handler struct {
	log    *zap.SugaredLogger
	engine *Engine
}

func NewHandler(log *zap.SugaredLogger, engine *Engine) *Handler {
	return &Handler{log: log, engine: engine}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/check-cart", h.checkCart)
}

type checkCartRequest struct {
	Shop string `json:"shop"`
	Cart Cart   `json:"cart"`
}

// POST /check-cart
func (h *Handler) checkCart(w http.ResponseWriter, r *http.Request) {
	var body checkCartRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httpx.WriteError(w, "bad json", http.StatusBadRequest)
		return
	}
	if body.Shop == "" {
		httpx.WriteError(w, "shop is required", http.StatusBadRequest)
		return
	}
	if err := ValidateCart(body.Cart); err != nil {
		httpx.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}
	dec, err := h.engine.Evaluate(r.Context(), body.Shop, body.Cart)
	if err != nil {
		if errors.Is(err, tenants.ErrNotFound) {
			httpx.WriteError(w, "Shop not registered", http.StatusBadRequest)
			return
		}
		h.log.Errorw("check-cart", "shop", body.Shop, "err", err)
		httpx.WriteError(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	httpx.WriteJSON(w, dec, http.StatusOK)
}
