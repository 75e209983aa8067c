package payments

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes payment endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type createRequest struct {
	ID          string `json:"id"`
	CardNumber  string `json:"card_number"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount"`
	CVV         string `json:"cvv"`
}

// Create authorizes a card payment. Replays of a known id return the stored outcome.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "malformed payment request")
	}

	resp, err := h.service.Create(c.UserContext(), PaymentRequest{
		ID:          req.ID,
		CardNumber:  req.CardNumber,
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
		Currency:    req.Currency,
		Amount:      req.Amount,
		CVV:         req.CVV,
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.Status(http.StatusBadRequest).JSON(Reject(req.ID, verr.Errors))
		}
		if h.logger != nil {
			h.logger.Error("create payment failed", slog.String("payment_id", req.ID), slog.Any("error", err))
		}
		return fiber.NewError(http.StatusInternalServerError, "payment could not be processed")
	}

	return c.Status(http.StatusOK).JSON(resp)
}

// Get returns a previously processed payment.
func (h *Handler) Get(c *fiber.Ctx) error {
	resp, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		if h.logger != nil {
			h.logger.Error("get payment failed", slog.String("payment_id", c.Params("id")), slog.Any("error", err))
		}
		return fiber.NewError(http.StatusInternalServerError, "payment could not be retrieved")
	}
	return c.Status(http.StatusOK).JSON(resp)
}
