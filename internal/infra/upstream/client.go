// Package upstream provides the client for the affiliate backend API.
// All business logic (commission calculation, withdrawal approval,
// referral hierarchy) lives there; this client consumes it as JSON
// envelopes of the form { message, ...payload }, with errors reported
// as { error } or { message }.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/suryadigit/affiliate-gateway/internal/domain"
	"github.com/suryadigit/affiliate-gateway/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("upstream")

// Client wraps HTTP calls to the affiliate backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewClient creates an upstream client. The http.Client carries the fixed
// request timeout; its expiry is handled like any other network failure.
func NewClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	maxConc := cfg.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 50
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(maxConc),
		logger:     logger,
	}
}

// errorEnvelope is the upstream error body: { error } or { message }.
type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do executes one upstream call. Mapped API errors (4xx) come back typed
// and are never retried; network failures and 5xx responses are retried
// when retryable is true (reads), and wrapped as transport errors.
func (c *Client) do(ctx context.Context, op, method, path, token string, body, out any, retryable bool) error {
	ctx, span := tracer.Start(ctx, "Upstream."+op)
	defer span.End()
	span.SetAttributes(attribute.String("http.method", method), attribute.String("path", path))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	cfg := c.cfg
	if !retryable {
		cfg.MaxRetries = 0
	}

	var terminal error
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, cfg, func() error {
			return c.roundTrip(ctx, method, path, token, payload, out, &terminal)
		})
	})

	if terminal != nil {
		return terminal
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &domain.ErrTimeout{Operation: op}
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &domain.ErrCircuitOpen{Service: "affiliate-api"}
		}
		return &domain.ErrExternalService{Service: op, Err: err}
	}
	return nil
}

// roundTrip performs a single request attempt. A 4xx response is recorded
// in terminal and reported as success to stop the retry loop.
func (c *Client) roundTrip(ctx context.Context, method, path, token string, payload []byte, out any, terminal *error) error {
	url := c.baseURL + path

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("upstream: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		*terminal = mapAPIError(resp.StatusCode, respBody, path, token != "")
		c.logger.Warn("upstream: request rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("upstream: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return fmt.Errorf("upstream returned status %d", resp.StatusCode)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			// A malformed success body is not worth retrying.
			*terminal = &domain.ErrDecode{What: path, Err: err}
			return nil
		}
	}
	return nil
}

// mapAPIError turns an upstream 4xx body into a typed error. The server's
// message string is preserved verbatim wherever a message is carried.
// A 401 means two different things depending on the request: a rejected
// bearer token invalidates the session, while a 401 on an unauthenticated
// call (login, signup, OTP) is just bad credentials.
func mapAPIError(status int, body []byte, path string, authed bool) error {
	var env errorEnvelope
	_ = json.Unmarshal(body, &env)
	msg := env.Error
	if msg == "" {
		msg = env.Message
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}

	switch status {
	case http.StatusUnauthorized:
		if !authed {
			return &domain.ErrUnauthorized{Message: msg}
		}
		return &domain.ErrSessionInvalidated{}
	case http.StatusForbidden:
		return &domain.ErrForbidden{Action: msg}
	case http.StatusNotFound:
		return &domain.ErrNotFound{Resource: path, ID: msg}
	case http.StatusConflict:
		return &domain.ErrConflict{Message: msg}
	default:
		return &domain.ErrBusiness{Message: msg}
	}
}
