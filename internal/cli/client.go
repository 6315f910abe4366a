package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/me/schedlab/pkg/model"
)

// requestTimeout bounds a single CLI call; submissions return as soon as the
// run is recorded, so nothing the CLI sends should take longer.
const requestTimeout = 30 * time.Second

// Client talks to a schedlab server's /api/v1 routes and unwraps the
// model.Response envelope the server puts around every reply.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewClient returns a Client for the server at baseURL, e.g.
// "http://localhost:8080". A trailing slash is ignored.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: requestTimeout},
		Logger:     logger,
	}
}

// apiResponse mirrors model.Response with data left raw until the caller
// knows its shape.
type apiResponse struct {
	Status     string            `json:"status"`
	RequestID  string            `json:"request_id"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Error      *model.APIError   `json:"error"`
}

func (c *Client) Get(path string) (*apiResponse, error) {
	return c.call(http.MethodGet, path, nil)
}

func (c *Client) Post(path string, body any) (*apiResponse, error) {
	return c.call(http.MethodPost, path, body)
}

func (c *Client) Put(path string, body any) (*apiResponse, error) {
	return c.call(http.MethodPut, path, body)
}

func (c *Client) Delete(path string) (*apiResponse, error) {
	return c.call(http.MethodDelete, path, nil)
}

// call sends body as JSON when non-nil. A reply with status "error" comes
// back as its *model.APIError so commands can print the server's message.
func (c *Client) call(method, path string, body any) (*apiResponse, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = bytes.NewReader(data)
		c.Logger.Debug("api request body", "body", string(data))
	}

	req, err := http.NewRequest(method, c.BaseURL+path, payload)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	c.Logger.Debug("api call", "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start), "body", string(raw))

	var env apiResponse
	if err := json.Unmarshal(raw, &env); err != nil || env.Status == "" {
		// Something other than the schedlab server answered, e.g. a proxy page.
		return nil, fmt.Errorf("%s %s: unexpected reply (HTTP %d): %s",
			method, path, resp.StatusCode, snippet(raw))
	}
	if env.Status == "error" && env.Error != nil {
		return &env, env.Error
	}
	return &env, nil
}

// decode unmarshals the envelope data into v.
func (r *apiResponse) decode(v any) error {
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 120 {
		s = s[:120] + "..."
	}
	if s == "" {
		s = "<empty body>"
	}
	return s
}
