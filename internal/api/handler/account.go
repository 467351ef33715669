// internal/api/handler/account.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"fumo-economy/internal/api/types"
	"fumo-economy/internal/domain"
	"fumo-economy/internal/service"
	"fumo-economy/internal/util"
)

// AccountHandler handles HTTP requests related to player accounts.
type AccountHandler struct {
	responder
	service service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		responder: responder{logger: logger},
		service:   svc,
	}
}

// CreateAccountRequest represents the request body for account creation.
type CreateAccountRequest struct {
	UserID string `json:"user_id"`
}

// CreateAccount handles the open account request.
// POST /users
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, r, util.ErrInvalidInput)
		return
	}

	balance, err := h.service.CreateAccount(r.Context(), req.UserID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, balance)
}

// GetBalance handles the get balance request.
// GET /users/{userID}/balance
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.service.GetBalance(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, balance)
}

// GetInventory handles the list owned items request.
// GET /users/{userID}/inventory
func (h *AccountHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	items, err := h.service.GetInventory(r.Context(), userID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"items":   items,
	})
}

// GetHistory handles the ledger history request.
// GET /users/{userID}/history
func (h *AccountHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 10)

	entries, total, err := h.service.GetHistory(r.Context(), chi.URLParam(r, "userID"), limit, offset)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.LedgerEntry]{
		Data:       entries,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
	})
}

// GrantRequest represents the request body for a reward grant.
type GrantRequest struct {
	Coins decimal.Decimal `json:"coins"`
	Gems  decimal.Decimal `json:"gems"`
}

// Grant handles the reward request.
// POST /users/{userID}/grant
func (h *AccountHandler) Grant(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, r, util.ErrInvalidInput)
		return
	}

	balance, err := h.service.Grant(r.Context(), chi.URLParam(r, "userID"), req.Coins, req.Gems)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, balance)
}
