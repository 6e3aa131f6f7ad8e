// Package dealerapi talks to the remote dealer/review service.
package dealerapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"

	"car_dealership/internal/adapters/observability"
	"car_dealership/internal/domain"
)

const service = "dealer_api"

var (
	ErrUnauthorized = errors.New("dealer api: unauthorized")
	ErrForbidden    = errors.New("dealer api: forbidden")
)

type Client struct {
	base     string
	hc       *http.Client
	rl       *rate.Limiter
	attempts int
}

// New builds a client for base (e.g. http://localhost:3030). attempts bounds
// how many times an idempotent GET is tried; 1 disables retries.
func New(base string, rps, attempts int, timeout time.Duration) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("dealer api base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("dealer api base URL: %w", err)
	}
	if rps <= 0 {
		rps = 20
	}
	if attempts <= 0 {
		attempts = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:     strings.TrimRight(base, "/"),
		hc:       &http.Client{Timeout: timeout},
		rl:       rate.NewLimiter(rate.Limit(rps), rps),
		attempts: attempts,
	}, nil
}

// ---- Public API ----

// FetchDealers lists every dealer, or only those in state when it is non-empty.
func (c *Client) FetchDealers(ctx context.Context, state string) ([]any, error) {
	endpoint := "/fetchDealers"
	if state != "" {
		endpoint += "/" + url.PathEscape(state)
	}
	var out []any
	return out, c.get(ctx, "fetchDealers", endpoint, &out)
}

func (c *Client) FetchDealer(ctx context.Context, id int64) (any, error) {
	var out any
	return out, c.get(ctx, "fetchDealer", fmt.Sprintf("/fetchDealer/%d", id), &out)
}

func (c *Client) FetchReviews(ctx context.Context, dealerID int64) ([]any, error) {
	var out []any
	return out, c.get(ctx, "fetchReviews", fmt.Sprintf("/fetchReviews/dealer/%d", dealerID), &out)
}

// PostReview submits a review. It is never retried.
func (c *Client) PostReview(ctx context.Context, payload map[string]any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out any
	if err := c.do(ctx, "insertReview", http.MethodPost, "/insert_review", body, &out); err != nil {
		return nil, err
	}
	if m, ok := out.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{}, nil
}

// ---- Internals ----

// get performs a GET with rate limiting and up to c.attempts tries.
// Retries on network errors, 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, label, endpoint string, out any) error {
	var lastErr error
	for i := 0; i < c.attempts; i++ {
		err := c.do(ctx, label, http.MethodGet, endpoint, nil, out)
		if err == nil {
			return nil
		}
		var te *transientError
		if !errors.As(err, &te) {
			return err
		}
		lastErr = te.err
		if i == c.attempts-1 {
			break
		}
		wait := te.retryAfter
		if wait == 0 {
			wait = backoff(i)
		}
		if !sleepCtx(ctx, wait) {
			return ctx.Err()
		}
	}
	return lastErr
}

type transientError struct {
	err        error
	retryAfter time.Duration
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func (c *Client) do(ctx context.Context, label, method, endpoint string, body []byte, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	ctx, span := observability.Tracer().Start(ctx, service+"."+label)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("dealer_api.endpoint", endpoint),
	)

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+endpoint, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "car-dealership/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(service, label, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &transientError{err: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal(service, label, resp.StatusCode, time.Since(start))
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			span.SetStatus(codes.Error, "decode")
			return fmt.Errorf("decode %s: %w", endpoint, err)
		}
		return nil

	case http.StatusNoContent:
		return nil

	case http.StatusNotFound:
		span.SetStatus(codes.Error, "not found")
		return domain.ErrNotFound

	case http.StatusUnauthorized:
		span.SetStatus(codes.Error, "unauthorized")
		return ErrUnauthorized

	case http.StatusForbidden:
		span.SetStatus(codes.Error, "forbidden")
		return ErrForbidden

	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		span.SetStatus(codes.Error, "transient")
		return &transientError{
			err:        fmt.Errorf("remote %d", resp.StatusCode),
			retryAfter: retryAfter(resp),
		}

	default:
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		span.SetStatus(codes.Error, "bad status")
		return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
