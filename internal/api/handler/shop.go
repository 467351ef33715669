// internal/api/handler/shop.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fumo-economy/internal/market"
	"fumo-economy/internal/service"
	"fumo-economy/internal/util"
)

// ShopHandler handles HTTP requests for personal shops.
type ShopHandler struct {
	responder
	service service.ShopService
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(svc service.ShopService, logger *slog.Logger) *ShopHandler {
	return &ShopHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// GetShop returns the caller's current shop.
// GET /users/{userID}/shop?kind=coins|gems
func (h *ShopHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	kind, err := market.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		h.respondWithCode(w, util.CodeInvalidInput)
		return
	}
	h.respondWithJSON(w, http.StatusOK, h.service.GetShop(r.Context(), chi.URLParam(r, "userID"), kind))
}

// PurchaseRequest represents the request body for a shop purchase. Index is
// the zero-based position in the shop listing.
type PurchaseRequest struct {
	Kind     string `json:"kind"`
	Index    int    `json:"index"`
	Quantity int    `json:"quantity"`
}

// Purchase handles the buy-from-shop request.
// POST /users/{userID}/shop/purchase
func (h *ShopHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithCode(w, util.CodeInvalidInput)
		return
	}
	kind, err := market.ParseKind(req.Kind)
	if err != nil {
		h.respondWithCode(w, util.CodeInvalidInput)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	res, err := h.service.Purchase(r.Context(), chi.URLParam(r, "userID"), kind, req.Index, req.Quantity)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if !res.Code.OK() {
		h.respondWithCode(w, res.Code)
		return
	}
	h.respondWithJSON(w, http.StatusOK, res)
}
