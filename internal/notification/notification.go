package notification

import (
	"context"
	"log/slog"
)

const (
	// KindPaymentAuthorized is emitted when the bank approves a payment.
	KindPaymentAuthorized = "payment_authorized"
	// KindPaymentDeclined is emitted for declines and unreachable-bank outcomes alike.
	KindPaymentDeclined = "payment_declined"
)

// Message describes a notification payload. Body must only carry display-safe data.
type Message struct {
	Kind      string
	PaymentID string
	Body      string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(ctx context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.InfoContext(ctx, "notification",
		slog.String("kind", message.Kind),
		slog.String("payment_id", message.PaymentID),
		slog.String("body", message.Body),
	)
	return nil
}
