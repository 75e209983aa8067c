package payments

import (
	"time"

	"github.com/google/uuid"
)

var supportedCurrencies = map[string]struct{}{
	"USD": {},
	"EUR": {},
	"GBP": {},
}

// Validate returns every rule the request violates, in a fixed field order.
// An empty result means the request is valid. Expiry rules are evaluated
// against now.
func Validate(req PaymentRequest, now time.Time) []string {
	var errs []string

	if req.ID == "" {
		errs = append(errs, "Payment id is required")
	} else if _, err := uuid.Parse(req.ID); err != nil {
		errs = append(errs, "Payment id must be a valid UUID")
	}

	if req.CardNumber == "" {
		errs = append(errs, "Card number is required")
	} else {
		if n := len(req.CardNumber); n < 14 || n > 19 {
			errs = append(errs, "Card number must be between 14 and 19 characters")
		}
		if !isDigits(req.CardNumber) {
			errs = append(errs, "Card number must only contain numeric characters")
		}
	}

	if req.ExpiryMonth == 0 {
		errs = append(errs, "Expiry month is required")
	} else if req.ExpiryMonth < 1 || req.ExpiryMonth > 12 {
		errs = append(errs, "Expiry month must be between 1 and 12")
	}

	if req.ExpiryYear == 0 {
		errs = append(errs, "Expiry year is required")
	} else {
		switch {
		case req.ExpiryYear < now.Year():
			errs = append(errs, "Expiry year must be in the future")
		case req.ExpiryYear == now.Year() && req.ExpiryMonth < int(now.Month()):
			errs = append(errs, "Expiry month and year combination must be in the future")
		}
	}

	if req.Currency == "" {
		errs = append(errs, "Currency is required")
	} else {
		if len(req.Currency) != 3 {
			errs = append(errs, "Currency code must be exactly 3 characters")
		}
		if _, ok := supportedCurrencies[req.Currency]; !ok {
			errs = append(errs, "Currency must be one of USD, EUR, GBP")
		}
	}

	if req.Amount == 0 {
		errs = append(errs, "Amount is required")
	}
	if req.Amount <= 0 {
		errs = append(errs, "Amount must be a positive integer")
	}

	if req.CVV == "" {
		errs = append(errs, "CVV is required")
	} else {
		if n := len(req.CVV); n < 3 || n > 4 {
			errs = append(errs, "CVV must be 3 to 4 characters long")
		}
		if !isDigits(req.CVV) {
			errs = append(errs, "CVV must only contain numeric characters")
		}
	}

	return errs
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
