// Package banksim is a stand-in acquiring bank used for local development and
// end-to-end tests. Its verdict depends only on the card number's last digit:
// odd digits are authorized, even digits are declined and zero makes the bank
// unavailable.
package banksim

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/congo-pay/payment_gateway/internal/bank"
)

// DeclineReason is returned with every simulated decline.
const DeclineReason = "Insufficient funds"

// Simulator serves the bank's authorization endpoint.
type Simulator struct {
	logger *slog.Logger
}

// New constructs a simulator.
func New(logger *slog.Logger) *Simulator {
	return &Simulator{logger: logger}
}

// Routes returns a router exposing POST /payments.
func (s *Simulator) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/payments", s.authorize)
	r.Get("/-/live", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}

func (s *Simulator) authorize(w http.ResponseWriter, r *http.Request) {
	var req bank.AuthorizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error_message": "malformed request"})
		return
	}
	if req.CardNumber == "" || req.ExpiryDate == "" || req.Currency == "" || req.Amount <= 0 || req.CVV == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error_message": "missing required fields"})
		return
	}

	last := req.CardNumber[len(req.CardNumber)-1]
	switch {
	case last < '0' || last > '9':
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error_message": "card number must be numeric"})
		return
	case last == '0':
		s.log("bank unavailable", req, http.StatusServiceUnavailable)
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	case (last-'0')%2 == 1:
		s.log("authorized", req, http.StatusOK)
		s.writeJSON(w, http.StatusOK, bank.Result{Authorized: true, AuthorizationCode: uuid.NewString()})
	default:
		s.log("declined", req, http.StatusOK)
		s.writeJSON(w, http.StatusOK, bank.Result{Authorized: false, Reason: DeclineReason})
	}
}

func (s *Simulator) log(msg string, req bank.AuthorizationRequest, status int) {
	if s.logger == nil {
		return
	}
	s.logger.Info(msg, slog.String("payment_id", req.PaymentID), slog.Int("status", status))
}

func (s *Simulator) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && s.logger != nil {
		s.logger.Error("encode response", slog.Int("status", status), slog.Any("error", err))
	}
}
