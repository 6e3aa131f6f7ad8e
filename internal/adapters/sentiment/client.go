// Package sentiment labels free text as positive, negative or neutral.
package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"car_dealership/internal/adapters/observability"
	"car_dealership/internal/domain"
)

// Client calls the sentiment analyzer microservice: GET {base}/analyze/{text}
// answers {"sentiment": "..."}.
type Client struct {
	base string
	hc   *http.Client
}

func New(base string, timeout time.Duration) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("sentiment analyzer URL is required")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{base: strings.TrimRight(base, "/"), hc: &http.Client{Timeout: timeout}}, nil
}

type analyzeResponse struct {
	Sentiment string `json:"sentiment"`
}

func (c *Client) Analyze(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrNoSentiment
	}

	ctx, span := observability.Tracer().Start(ctx, "sentiment.analyze")
	defer span.End()
	span.SetAttributes(attribute.Int("sentiment.text_len", len(text)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/analyze/"+url.PathEscape(text), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("sentiment", "analyze", 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		return "", err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("sentiment", "analyze", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		span.SetStatus(codes.Error, "bad status")
		return "", fmt.Errorf("sentiment analyzer status %d", resp.StatusCode)
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		span.SetStatus(codes.Error, "decode")
		return "", fmt.Errorf("decode sentiment: %w", err)
	}
	label := strings.ToLower(strings.TrimSpace(out.Sentiment))
	if label == "" {
		return "", domain.ErrNoSentiment
	}
	span.SetAttributes(attribute.String("sentiment.label", label))
	return label, nil
}
