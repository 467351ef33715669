// internal/api/handler/respond.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"fumo-economy/internal/util"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 15 * time.Second

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   util.Code `json:"error"`
	Message string    `json:"message"`
}

// responder carries the JSON helpers shared by all handlers.
type responder struct {
	logger *slog.Logger
}

// Helper function to send JSON responses.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithCode renders a business rejection.
func (h responder) respondWithCode(w http.ResponseWriter, code util.Code) {
	h.respondWithJSON(w, statusForCode(code), ErrorResponse{Error: code, Message: code.Message()})
}

// respondWithError renders a Go error. Anything that is not a known input
// or lookup failure is logged and reported as a generic retryable failure.
func (h responder) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, util.ErrInvalidInput):
		h.respondWithCode(w, util.CodeInvalidInput)
	case errors.Is(err, util.ErrNotFound):
		h.respondWithJSON(w, http.StatusNotFound, ErrorResponse{Error: util.CodeNotFound, Message: "Resource not found"})
	case errors.Is(err, util.ErrDuplicateEntry):
		h.respondWithCode(w, util.CodeAlreadyExists)
	default:
		h.logger.Error("Unhandled service error", "method", r.Method, "path", r.URL.Path, "error", err)
		h.respondWithCode(w, util.CodeProcessingFailed)
	}
}

func statusForCode(code util.Code) int {
	switch code {
	case util.CodeInvalidInput, util.CodeInvalidPrice:
		return http.StatusBadRequest
	case util.CodeNotFound, util.CodeNoAccount:
		return http.StatusNotFound
	case util.CodeInsufficientFunds, util.CodeInsufficientCoins, util.CodeInsufficientGems:
		return http.StatusPaymentRequired // 402 Payment Required
	case util.CodeSelfTradeDenied, util.CodeNotListingOwner:
		return http.StatusForbidden
	case util.CodeInsufficientStock, util.CodeListingUnavailable, util.CodeListingLimitReached, util.CodeAlreadyExists:
		return http.StatusConflict
	case util.CodeItemNotOwned:
		return http.StatusUnprocessableEntity
	case util.CodeRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// pagination reads limit and offset query parameters.
func pagination(r *http.Request, defaultLimit int) (limit, offset int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err = strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
