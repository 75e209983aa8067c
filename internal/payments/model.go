package payments

import (
	"errors"
	"strings"
	"time"
)

// Status is the lifecycle state of a payment record.
type Status string

const (
	// StatusPending is held only while the bank is being consulted; it is never stored.
	StatusPending    Status = "Pending"
	StatusAuthorized Status = "Authorized"
	StatusDeclined   Status = "Declined"
	// StatusRejected is used on responses for requests that failed validation.
	StatusRejected Status = "Rejected"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusAuthorized || s == StatusDeclined
}

// DefaultDeclineReason is recorded when the bank gave no reason or could not be reached.
const DefaultDeclineReason = "Payment could not be processed by the acquiring bank"

var (
	// ErrPaymentNotFound indicates no record exists for the identifier.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrDuplicatePayment indicates a record already exists for the identifier.
	ErrDuplicatePayment = errors.New("duplicate payment")
)

// PaymentRequest is the caller-supplied authorization request. It holds the raw
// card number and CVV and must not be retained past a single Create call.
type PaymentRequest struct {
	ID          string
	CardNumber  string
	ExpiryMonth int
	ExpiryYear  int
	Currency    string
	Amount      int64
	CVV         string
}

// Record is the stored outcome of a payment. It never contains the raw card number.
type Record struct {
	ID                string
	Status            Status
	MaskedCard        string
	ExpiryMonth       int
	ExpiryYear        int
	Currency          string
	Amount            int64
	Reason            string
	AuthorizationCode string
	CreatedAt         time.Time
}

// Response is the outward projection of a record.
type Response struct {
	ID                 string `json:"id"`
	Status             Status `json:"status"`
	CardNumberLastFour string `json:"card_number_last_four"`
	ExpiryMonth        int    `json:"expiry_month"`
	ExpiryYear         int    `json:"expiry_year"`
	Currency           string `json:"currency"`
	Amount             int64  `json:"amount"`
	Reason             string `json:"reason,omitempty"`
}

// RejectedResponse is returned for requests that fail validation.
type RejectedResponse struct {
	ID     string   `json:"id"`
	Status Status   `json:"status"`
	Errors []string `json:"errors"`
}

// ValidationError carries every violated rule, in rule order.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid payment request: " + strings.Join(e.Errors, "; ")
}
