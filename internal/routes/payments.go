package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/payment_gateway/internal/payments"
)

// RegisterPaymentRoutes wires payment endpoints.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler, limiter fiber.Handler) {
	if limiter != nil {
		r.Post("/payments", limiter, h.Create)
	} else {
		r.Post("/payments", h.Create)
	}
	r.Get("/payments/:id", h.Get)
}
