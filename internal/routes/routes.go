package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/payment_gateway/internal/config"
	"github.com/congo-pay/payment_gateway/internal/logging"
	"github.com/congo-pay/payment_gateway/internal/middleware"
	"github.com/congo-pay/payment_gateway/internal/notification"
	"github.com/congo-pay/payment_gateway/internal/payments"
)

// Deps aggregates shared dependencies required to wire routes. A nil Logger
// discards output.
type Deps struct {
	Cfg      config.Config
	Cache    *redis.Client
	Logger   *slog.Logger
	Acquirer payments.Acquirer
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if d.Acquirer == nil {
		return fmt.Errorf("acquirer is required")
	}
	if d.Cfg.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	paymentSvc, err := payments.NewService(payments.NewMemoryRepository(), d.Acquirer, d.Logger,
		payments.WithNotifier(notification.NewLoggerNotifier(d.Logger)),
	)
	if err != nil {
		return err
	}
	paymentHandler := payments.NewHandler(paymentSvc, d.Logger)

	api := app.Group("/api/v1", middleware.APIKey(d.Cfg.APIKey))
	var limiter fiber.Handler
	if d.Cache != nil {
		limiter = middleware.RateLimit(d.Cache, d.Cfg.RateLimit, d.Logger)
	}
	RegisterPaymentRoutes(api, paymentHandler, limiter)

	return nil
}
