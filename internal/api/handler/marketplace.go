// internal/api/handler/marketplace.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fumo-economy/internal/api/types"
	"fumo-economy/internal/domain"
	"fumo-economy/internal/service"
	"fumo-economy/internal/util"
)

// MarketplaceHandler handles HTTP requests for the global marketplace.
type MarketplaceHandler struct {
	responder
	service service.MarketplaceService
}

// NewMarketplaceHandler creates a new MarketplaceHandler.
func NewMarketplaceHandler(svc service.MarketplaceService, logger *slog.Logger) *MarketplaceHandler {
	return &MarketplaceHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

func listingID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "listingID"))
	return id, err == nil
}

// ListListings handles the browse request.
// GET /marketplace/listings?seller=&rarity=&limit=&offset=
func (h *MarketplaceHandler) ListListings(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 20)
	filter := domain.ListingFilter{
		SellerID: r.URL.Query().Get("seller"),
		Rarity:   r.URL.Query().Get("rarity"),
		Limit:    limit,
		Offset:   offset,
	}

	listings, total, err := h.service.ListListings(r.Context(), filter)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Listing]{
		Data:       listings,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// CreateListingRequest represents the request body for a new listing.
type CreateListingRequest struct {
	SellerID  string          `json:"seller_id"`
	ItemName  string          `json:"item_name"`
	CoinPrice decimal.Decimal `json:"coin_price"`
	GemPrice  decimal.Decimal `json:"gem_price"`
}

// CreateListing handles the list-an-item request.
// POST /marketplace/listings
func (h *MarketplaceHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithCode(w, util.CodeInvalidInput)
		return
	}

	res, err := h.service.CreateListing(r.Context(), req.SellerID, req.ItemName, req.CoinPrice, req.GemPrice)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if !res.Code.OK() {
		h.respondWithCode(w, res.Code)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, res.Listing)
}

// GetListing handles the listing detail request.
// GET /marketplace/listings/{listingID}
func (h *MarketplaceHandler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(r)
	if !ok {
		h.respondWithCode(w, util.CodeInvalidInput)
		return
	}

	listing, err := h.service.GetListing(r.Context(), id)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, listing)
}

// RemoveListing handles the cancel-listing request.
// DELETE /marketplace/listings/{listingID}?seller=
func (h *MarketplaceHandler) RemoveListing(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(r)
	if !ok {
		h.respondWithCode(w, util.CodeInvalidInput)
		return
	}

	res, err := h.service.RemoveListing(r.Context(), r.URL.Query().Get("seller"), id)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if !res.Code.OK() {
		h.respondWithCode(w, res.Code)
		return
	}
	h.respondWithJSON(w, http.StatusOK, res.Listing)
}

// BuyListingRequest represents the request body for a listing purchase.
type BuyListingRequest struct {
	BuyerID string `json:"buyer_id"`
}

// Purchase handles the buy-listing request.
// POST /marketplace/listings/{listingID}/purchase
func (h *MarketplaceHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	id, ok := listingID(r)
	if !ok {
		h.respondWithCode(w, util.CodeInvalidInput)
		return
	}
	var req BuyListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BuyerID == "" {
		h.respondWithCode(w, util.CodeInvalidInput)
		return
	}

	res, err := h.service.Purchase(r.Context(), req.BuyerID, id)
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
