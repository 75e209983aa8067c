package payments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/congo-pay/payment_gateway/internal/bank"
	"github.com/congo-pay/payment_gateway/internal/notification"
)

// Acquirer represents a connector to the acquiring bank.
type Acquirer interface {
	Authorize(ctx context.Context, req bank.AuthorizationRequest) (bank.Result, error)
}

// outcome keeps the distinction the stored status collapses.
type outcome string

const (
	outcomeAuthorized outcome = "authorized"
	outcomeDeclined   outcome = "declined"
	outcomeFailed     outcome = "failed"
)

// Service runs the payment pipeline: validation, idempotency check, bank
// authorization, status derivation, persistence and projection.
type Service struct {
	repo     Repository
	acquirer Acquirer
	notifier notification.Notifier
	logger   *slog.Logger
	now      func() time.Time
	inflight singleflight.Group
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the clock used for expiry validation and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNotifier publishes payment decisions to n.
func WithNotifier(n notification.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// NewService constructs a payment service.
func NewService(repo Repository, acquirer Acquirer, logger *slog.Logger, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment repository is required")
	}
	if acquirer == nil {
		return nil, fmt.Errorf("acquirer is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		repo:     repo,
		acquirer: acquirer,
		logger:   logger.With(slog.String("component", "payments")),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create processes a payment request. Repeated calls with the same ID return
// the stored outcome without contacting the bank again. Bank failures are
// recorded as declines; only validation (*ValidationError) and internal
// failures are returned as errors.
func (s *Service) Create(ctx context.Context, req PaymentRequest) (Response, error) {
	if errs := Validate(req, s.now()); len(errs) > 0 {
		return Response{}, &ValidationError{Errors: errs}
	}

	rec, err := s.repo.Get(ctx, req.ID)
	if err == nil {
		s.logger.InfoContext(ctx, "payment replayed", slog.String("payment_id", rec.ID), slog.String("status", string(rec.Status)))
		return Project(rec), nil
	}
	if !errors.Is(err, ErrPaymentNotFound) {
		return Response{}, fmt.Errorf("lookup payment %s: %w", req.ID, err)
	}

	// Concurrent requests for one ID share a single bank call. The decision
	// must not depend on the first caller staying connected.
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.inflight.Do(req.ID, func() (any, error) {
		return s.process(flightCtx, req)
	})
	if err != nil {
		return Response{}, err
	}
	return Project(v.(Record)), nil
}

// Get returns the projection of a stored payment or ErrPaymentNotFound.
func (s *Service) Get(ctx context.Context, id string) (Response, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return Response{}, err
		}
		return Response{}, fmt.Errorf("get payment %s: %w", id, err)
	}
	return Project(rec), nil
}

func (s *Service) process(ctx context.Context, req PaymentRequest) (Record, error) {
	// A flight for this ID may have finished between the caller's lookup and now.
	if rec, err := s.repo.Get(ctx, req.ID); err == nil {
		return rec, nil
	} else if !errors.Is(err, ErrPaymentNotFound) {
		return Record{}, fmt.Errorf("lookup payment %s: %w", req.ID, err)
	}

	rec := Record{
		ID:          req.ID,
		Status:      StatusPending,
		MaskedCard:  MaskCardNumber(req.CardNumber),
		ExpiryMonth: req.ExpiryMonth,
		ExpiryYear:  req.ExpiryYear,
		Currency:    req.Currency,
		Amount:      req.Amount,
		CreatedAt:   s.now().UTC(),
	}

	result, err := s.acquirer.Authorize(ctx, bank.AuthorizationRequest{
		PaymentID:  req.ID,
		CardNumber: req.CardNumber,
		ExpiryDate: bank.ExpiryDate(req.ExpiryMonth, req.ExpiryYear),
		Currency:   req.Currency,
		Amount:     req.Amount,
		CVV:        req.CVV,
	})
	out := settle(&rec, result, err)

	attrs := []any{
		slog.String("payment_id", rec.ID),
		slog.String("outcome", string(out)),
		slog.String("status", string(rec.Status)),
		slog.String("card", rec.MaskedCard),
		slog.Int64("amount", rec.Amount),
		slog.String("currency", rec.Currency),
	}
	switch {
	case bank.IsCommunicationFailure(err):
		attrs = append(attrs, slog.Any("error", err))
		s.logger.WarnContext(ctx, "payment declined after bank failure", attrs...)
	case err != nil:
		attrs = append(attrs, slog.Any("error", err))
		s.logger.ErrorContext(ctx, "payment declined after bank client error", attrs...)
	default:
		s.logger.InfoContext(ctx, "payment decided", attrs...)
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		if !errors.Is(err, ErrDuplicatePayment) {
			return Record{}, fmt.Errorf("store payment %s: %w", rec.ID, err)
		}
		existing, getErr := s.repo.Get(ctx, rec.ID)
		if getErr != nil {
			return Record{}, fmt.Errorf("reload payment %s after duplicate insert: %w", rec.ID, getErr)
		}
		s.logger.WarnContext(ctx, "payment inserted concurrently; returning stored record", slog.String("payment_id", rec.ID))
		return existing, nil
	}

	s.notify(ctx, rec)
	return rec, nil
}

// settle moves rec out of Pending according to the bank's answer. Any error
// means no verdict was obtained, so the payment is declined.
func settle(rec *Record, result bank.Result, err error) outcome {
	switch {
	case err != nil:
		rec.Status = StatusDeclined
		rec.Reason = DefaultDeclineReason
		return outcomeFailed
	case !result.Authorized:
		rec.Status = StatusDeclined
		rec.Reason = result.Reason
		if rec.Reason == "" {
			rec.Reason = DefaultDeclineReason
		}
		return outcomeDeclined
	default:
		rec.Status = StatusAuthorized
		rec.Reason = result.Reason
		rec.AuthorizationCode = result.AuthorizationCode
		return outcomeAuthorized
	}
}

func (s *Service) notify(ctx context.Context, rec Record) {
	if s.notifier == nil {
		return
	}
	kind := notification.KindPaymentDeclined
	if rec.Status == StatusAuthorized {
		kind = notification.KindPaymentAuthorized
	}
	msg := notification.Message{
		Kind:      kind,
		PaymentID: rec.ID,
		Body:      fmt.Sprintf("%s %d %s on card %s", rec.Status, rec.Amount, rec.Currency, rec.MaskedCard),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "notification failed", slog.String("payment_id", rec.ID), slog.Any("error", err))
	}
}
