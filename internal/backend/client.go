package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/me/schedlab/internal/logging"
	"github.com/me/schedlab/internal/metrics"
	"github.com/me/schedlab/pkg/model"
)

// Default client settings.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 2
	DefaultRetryDelay = 500 * time.Millisecond
)

// Config holds the HTTP client settings.
type Config struct {
	// BaseURL is the scheduling service root, e.g. https://localhost:7292.
	BaseURL string
	// Timeout bounds each HTTP request.
	Timeout time.Duration
	// MaxRetries applies to schema reads only; executions are never retried.
	MaxRetries int
	// RetryDelay is the initial backoff, doubled per attempt.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config for baseURL with default settings.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// HTTPClient is both SchemaProvider and Executor for the remote service.
type HTTPClient struct {
	httpClient *http.Client
	config     Config
	logger     *slog.Logger
}

// NewHTTPClient creates a client for the scheduling service.
func NewHTTPClient(config Config, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = logging.Discard()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &HTTPClient{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		logger:     logger.With("component", "backend-client"),
	}
}

// ListAlgorithms fetches GET /api/Algorithms.
func (c *HTTPClient) ListAlgorithms(ctx context.Context) ([]model.AlgorithmSummary, error) {
	start := time.Now()
	defer func() { metrics.SchemaFetchDuration.WithLabelValues("http").Observe(time.Since(start).Seconds()) }()

	body, err := c.getWithRetry(ctx, "list algorithms", "/api/Algorithms")
	if err != nil {
		return nil, err
	}
	var out []model.AlgorithmSummary
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse algorithm list: %w", err)
	}
	return out, nil
}

// GetAlgorithm fetches GET /api/Algorithms/{name}.
func (c *HTTPClient) GetAlgorithm(ctx context.Context, name string) (*model.AlgorithmDefinition, error) {
	start := time.Now()
	defer func() { metrics.SchemaFetchDuration.WithLabelValues("http").Observe(time.Since(start).Seconds()) }()

	body, err := c.getWithRetry(ctx, "get algorithm", "/api/Algorithms/"+url.PathEscape(name))
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", name, ErrAlgorithmNotFound)
		}
		return nil, err
	}
	var def model.AlgorithmDefinition
	if err := json.Unmarshal(body, &def); err != nil {
		return nil, fmt.Errorf("parse algorithm %s: %w", name, err)
	}
	if def.Name == "" {
		def.Name = name
	}
	return &def, nil
}

// Execute posts the encoded values to /api/Algorithms/{name}.
func (c *HTTPClient) Execute(ctx context.Context, name string, values map[string]any) (*model.Result, error) {
	params, err := EncodeParameters(values)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(ExecuteRequest{Parameters: params})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Debug("executing algorithm", "algorithm", name, "parameters", len(params))
	body, err := c.do(ctx, "execute", http.MethodPost, "/api/Algorithms/"+url.PathEscape(name), data)
	if err != nil {
		return nil, err
	}
	return DecodeResult(name, body)
}

func (c *HTTPClient) getWithRetry(ctx context.Context, op, path string) ([]byte, error) {
	logger := c.logger.With("op", op, "path", path)

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			logger.Debug("retrying after delay", "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.do(ctx, op, http.MethodGet, path, nil)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return nil, err
		}
		logger.Debug("request failed, will retry", "error", err, "attempt", attempt)
	}
	return nil, lastErr
}

// do performs a single request and returns the body of a 2xx response.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NoResponseError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NoResponseError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}
	c.logger.Debug("HTTP response", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
		var eb struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &eb) == nil {
			se.Message = eb.Message
		}
		return nil, se
	}
	return respBody, nil
}
