// Package monday is a small client for the Monday.com GraphQL API.
package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultAPIURL is the Monday.com GraphQL endpoint.
const DefaultAPIURL = "https://api.monday.com/v2"

const maxErrorBody = 512

// ErrMissingToken is returned by every call when no API token is configured.
var ErrMissingToken = errors.New("monday api token not configured")

// Error is a failure reported by the Monday.com API, either through a non-empty
// GraphQL errors array or a non-2xx status.
type Error struct {
	StatusCode int
	Messages   []string
}

func (e *Error) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.StatusCode != 0 && e.StatusCode != http.StatusOK {
		return fmt.Sprintf("monday api: %s (status %d)", msg, e.StatusCode)
	}
	return "monday api: " + msg
}

// Client calls the Monday.com GraphQL API.
type Client struct {
	httpClient *http.Client
	url        string
	token      string
	apiVersion string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-call timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithAPIVersion pins the API-Version header.
func WithAPIVersion(v string) Option {
	return func(c *Client) { c.apiVersion = v }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the given endpoint. An empty url selects
// DefaultAPIURL. An empty token is accepted; calls then fail with ErrMissingToken.
func NewClient(url, token string, opts ...Option) *Client {
	if url == "" {
		url = DefaultAPIURL
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        url,
		token:      token,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API token is present.
func (c *Client) Configured() bool {
	return c.token != ""
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data         json.RawMessage `json:"data"`
	Errors       []graphQLError  `json:"errors"`
	ErrorMessage string          `json:"error_message"`
}

// Do executes a GraphQL query and decodes its data member into out.
func (c *Client) Do(ctx context.Context, query string, variables map[string]any, out any) error {
	if c.token == "" {
		return ErrMissingToken
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)
	if c.apiVersion != "" {
		req.Header.Set("API-Version", c.apiVersion)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("monday api request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug("monday api call",
		"status", resp.StatusCode,
		"bytes", len(raw),
		"duration", time.Since(start),
	)

	var gr graphQLResponse
	decodeErr := json.Unmarshal(raw, &gr)

	// errors wins over the status code: Monday.com reports some failures with 200.
	if decodeErr == nil && (len(gr.Errors) > 0 || gr.ErrorMessage != "") {
		apiErr := &Error{StatusCode: resp.StatusCode}
		for _, e := range gr.Errors {
			apiErr.Messages = append(apiErr.Messages, e.Message)
		}
		if gr.ErrorMessage != "" {
			apiErr.Messages = append(apiErr.Messages, gr.ErrorMessage)
		}
		return apiErr
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{StatusCode: resp.StatusCode, Messages: []string{truncate(strings.TrimSpace(string(raw)), maxErrorBody)}}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if out == nil {
		return nil
	}
	if len(gr.Data) == 0 || string(gr.Data) == "null" {
		return &Error{StatusCode: resp.StatusCode, Messages: []string{"response has no data"}}
	}
	if err := json.Unmarshal(gr.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
