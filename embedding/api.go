package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"correspondence/config"
	apperrors "correspondence/errors"

	"go.uber.org/zap"
)

// Embedding request/response of the hosted embedding endpoint.
type embeddingRequest struct {
	Text  string `json:"text"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Vector []float32 `json:"vector"`
}

// APIEmbedder calls the hosted embedding API.
type APIEmbedder struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
	url        string
	dimension  int
}

var _ Embedder = (*APIEmbedder)(nil)

// NewAPIEmbedder builds a client for cfg.EmbeddingAPIURL with the configured
// timeout bounding every request.
func NewAPIEmbedder(cfg *config.Config, logger *zap.Logger) *APIEmbedder {
	dim := cfg.EmbeddingDimension
	if dim <= 0 {
		dim = DefaultDimension
	}
	timeout := cfg.EmbeddingTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &APIEmbedder{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		url:        strings.TrimRight(cfg.EmbeddingAPIURL, "/"),
		dimension:  dim,
	}
}

func (c *APIEmbedder) Dimension() int {
	return c.dimension
}

// Embed posts {text, model} and returns the vector. Transport errors,
// non-2xx statuses, empty vectors and dimension mismatches are all errors
// wrapping ErrEmbedding.
func (c *APIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if c.url == "" || c.cfg.EmbeddingAPIKey == "" {
		return nil, fmt.Errorf("%w: embedding API not configured", apperrors.ErrEmbedding)
	}
	jsonBody, err := json.Marshal(embeddingRequest{Text: text, Model: c.cfg.EmbeddingModel})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	attempts := c.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonBody))
		if err != nil {
			return nil, fmt.Errorf("create embedding request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.EmbeddingAPIKey)

		r, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			// Do not retry on context cancellation/deadline
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if r.StatusCode == http.StatusServiceUnavailable || r.StatusCode == http.StatusTooManyRequests {
			io.Copy(io.Discard, r.Body)
			r.Body.Close()
			lastErr = fmt.Errorf("embedding server status %s", r.Status)
			c.logger.Warn("Embedding service busy, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("status", r.StatusCode))
			if err := c.backoffSleep(ctx, attempt); err != nil {
				lastErr = err
				break
			}
			continue
		}

		resp = r
		break
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: no response from embedding server: %v", apperrors.ErrEmbedding, lastErr)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read embedding response: %v", apperrors.ErrEmbedding, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: embedding server status %s: %s", apperrors.ErrEmbedding, resp.Status, string(bodyBytes))
	}

	var er embeddingResponse
	if err := json.Unmarshal(bodyBytes, &er); err != nil {
		return nil, fmt.Errorf("%w: decode embedding response: %v", apperrors.ErrEmbedding, err)
	}
	if len(er.Vector) == 0 {
		return nil, fmt.Errorf("%w: embedding response was empty", apperrors.ErrEmbedding)
	}
	if len(er.Vector) != c.dimension {
		return nil, fmt.Errorf("%w: embedding has %d dimensions, want %d", apperrors.ErrEmbedding, len(er.Vector), c.dimension)
	}
	return er.Vector, nil
}

// backoffSleep waits with exponential backoff, capped and jittered, or until
// ctx is done.
func (c *APIEmbedder) backoffSleep(ctx context.Context, attempt int) error {
	base := c.cfg.RetryDelaySeconds
	if base <= 0 {
		base = time.Second
	}
	d := base * time.Duration(1<<attempt)
	maxWait := c.cfg.BackoffMaxSeconds
	if maxWait > 0 && d > maxWait {
		d = maxWait
	}
	jitterRatio := c.cfg.BackoffJitterRatio
	if jitterRatio < 0 || jitterRatio > 1 {
		jitterRatio = 0.1
	}
	jitter := time.Duration(float64(d) * jitterRatio)
	d = d - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter+1))

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
