package bank

import (
	"errors"
	"fmt"
)

// AuthorizationRequest is the sanitized body sent to the acquiring bank. It
// carries the full card number and CVV, so it must never be stored or logged.
type AuthorizationRequest struct {
	PaymentID  string `json:"payment_id"`
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
	Currency   string `json:"currency"`
	Amount     int64  `json:"amount"`
	CVV        string `json:"cvv"`
}

// Result is the bank's verdict. Authorized=false is an ordinary decline.
type Result struct {
	Authorized        bool   `json:"authorized"`
	AuthorizationCode string `json:"authorization_code,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

// ExpiryDate formats an expiry as MM/YYYY.
func ExpiryDate(month, year int) string {
	return fmt.Sprintf("%02d/%04d", month, year)
}

// Kind classifies why no verdict could be obtained from the bank.
type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindTransport Kind = "transport"
	KindStatus    Kind = "status"
	KindDecode    Kind = "decode"
)

// Error reports a communication failure: the bank's decision is unknown.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindStatus:
		return fmt.Sprintf("bank: unexpected status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("bank: %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("bank: %s", e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsCommunicationFailure reports whether err is a bank communication failure.
func IsCommunicationFailure(err error) bool {
	var bankErr *Error
	return errors.As(err, &bankErr)
}
