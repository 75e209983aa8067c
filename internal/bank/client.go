package bank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const maxBodyBytes = 1 << 20

var errMissingVerdict = errors.New("response has no authorized field")

// Client posts authorization requests to the acquiring bank over HTTP. It
// performs exactly one attempt per call.
type Client struct {
	url     string
	timeout time.Duration
	hc      *http.Client
	logger  *slog.Logger
}

// NewClient builds a bank client bound to url. hc may be nil, in which case a
// client with the given timeout is created.
func NewClient(url string, timeout time.Duration, hc *http.Client, logger *slog.Logger) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("bank url is required")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("bank timeout must be positive")
	}
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{url: url, timeout: timeout, hc: hc, logger: logger.With(slog.String("component", "bank_client"))}, nil
}

// Authorize sends req to the bank and returns its verdict, or an *Error when
// no verdict could be determined.
func (c *Client) Authorize(ctx context.Context, req AuthorizationRequest) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("encode bank request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build bank request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		kind := KindTransport
		if isTimeout(ctx, err) {
			kind = KindTimeout
		}
		c.logger.Warn("bank call failed",
			slog.String("payment_id", req.PaymentID),
			slog.String("kind", string(kind)),
			slog.Duration("latency", time.Since(start)),
			slog.Any("error", err),
		)
		return Result{}, &Error{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Info("bank responded",
		slog.String("payment_id", req.PaymentID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return Result{}, &Error{Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		kind := KindTransport
		if isTimeout(ctx, err) {
			kind = KindTimeout
		}
		return Result{}, &Error{Kind: kind, Err: err}
	}

	result, err := decodeResult(body)
	if err != nil {
		c.logger.Warn("bank response rejected",
			slog.String("payment_id", req.PaymentID),
			slog.Any("error", err),
		)
		return Result{}, &Error{Kind: KindDecode, Err: err}
	}
	return result, nil
}

// resultWire mirrors Result with a pointer so a missing verdict is detectable.
type resultWire struct {
	Authorized        *bool  `json:"authorized"`
	AuthorizationCode string `json:"authorization_code"`
	Reason            string `json:"reason"`
}

// decodeResult accepts exactly one JSON object carrying an explicit verdict.
// Trailing data, null and a missing "authorized" field are all rejected.
func decodeResult(body []byte) (Result, error) {
	var wire resultWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return Result{}, err
	}
	if wire.Authorized == nil {
		return Result{}, errMissingVerdict
	}
	return Result{
		Authorized:        *wire.Authorized,
		AuthorizationCode: wire.AuthorizationCode,
		Reason:            wire.Reason,
	}, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
