// internal/util/codes.go
package util

// Code is a user-facing rejection reason. Codes travel inside result structs
// rather than as errors so transports can render them without unwrapping.
type Code string

const (
	CodeOK                  Code = ""
	CodeInsufficientFunds   Code = "INSUFFICIENT_FUNDS"
	CodeInsufficientCoins   Code = "INSUFFICIENT_COINS"
	CodeInsufficientGems    Code = "INSUFFICIENT_GEMS"
	CodeInsufficientStock   Code = "INSUFFICIENT_STOCK"
	CodeNotFound            Code = "NOT_FOUND"
	CodeNoAccount           Code = "NO_ACCOUNT"
	CodeSelfTradeDenied     Code = "SELF_TRADE_DENIED"
	CodeListingUnavailable  Code = "LISTING_NO_LONGER_AVAILABLE"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeInvalidPrice        Code = "INVALID_PRICE"
	CodeItemNotOwned        Code = "ITEM_NOT_OWNED"
	CodeNotListingOwner     Code = "NOT_LISTING_OWNER"
	CodeListingLimitReached Code = "LISTING_LIMIT_REACHED"
	CodeAlreadyExists       Code = "ALREADY_EXISTS"
	CodeProcessingFailed    Code = "PROCESSING_FAILED"
	CodeRateLimited         Code = "RATE_LIMITED"
)

var codeMessages = map[Code]string{
	CodeInsufficientFunds:   "Insufficient funds",
	CodeInsufficientCoins:   "Not enough coins",
	CodeInsufficientGems:    "Not enough gems",
	CodeInsufficientStock:   "Not enough stock left",
	CodeNotFound:            "Item not found",
	CodeNoAccount:           "No account found for this user",
	CodeSelfTradeDenied:     "You cannot buy your own listing",
	CodeListingUnavailable:  "This listing is no longer available",
	CodeInvalidInput:        "Invalid input provided",
	CodeInvalidPrice:        "Both coin and gem prices must be greater than zero",
	CodeItemNotOwned:        "You do not own this item",
	CodeNotListingOwner:     "Only the seller can remove this listing",
	CodeListingLimitReached: "You have reached the maximum number of active listings",
	CodeAlreadyExists:       "Resource already exists",
	CodeProcessingFailed:    "processing failed, try again",
	CodeRateLimited:         "Slow down and try again shortly",
}

// Message returns a display string for the code.
func (c Code) Message() string {
	if m, ok := codeMessages[c]; ok {
		return m
	}
	return string(c)
}

// OK reports whether the code represents success.
func (c Code) OK() bool {
	return c == CodeOK
}
