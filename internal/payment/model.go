package payment

import (
	"errors"
	"time"
)

// Supported payment methods. Card and PayPal charges settle through
// their gateways and complete immediately; Vodafone Cash and bank
// transfers are verified by hand and stay pending until an admin
// reviews the receipt.
const (
	MethodStripe       = "stripe"
	MethodVodafoneCash = "vodafone_cash"
	MethodBankTransfer = "bank_transfer"
	MethodPayPal       = "paypal"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

var (
	ErrUnknownMethod = errors.New("unknown payment method")
	ErrFreeListing   = errors.New("free listings do not require payment")
	ErrAlreadyPaid   = errors.New("listing is already paid")
	ErrProofRequired = errors.New("payment receipt is required for this method")
	ErrBadExternalID = errors.New("external id does not match payment method")
)

// Payment is an append-only charge record against a listing.
type Payment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ListingID  string    `json:"listing_id"`
	ExternalID string    `json:"external_id"`
	Method     string    `json:"method"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	ReceiptKey *string   `json:"receipt_key,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatusForMethod returns the state a confirmed payment lands in.
func StatusForMethod(method string) (string, error) {
	switch method {
	case MethodStripe, MethodPayPal:
		return StatusCompleted, nil
	case MethodVodafoneCash, MethodBankTransfer:
		return StatusPending, nil
	default:
		return "", ErrUnknownMethod
	}
}

// RequiresProof reports whether a method needs an uploaded receipt.
func RequiresProof(method string) bool {
	return method == MethodVodafoneCash || method == MethodBankTransfer
}
