package coze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"chat-proxy/internal/domain"
)

const (
	DefaultBaseURL = "https://api.coze.cn"

	maxResponseBytes = 8 << 20
	maxErrorBody     = 4096
)

// HTTPStatusError captures a non-2xx upstream response whose body is not JSON.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("coze: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client calls the Coze workflow chat endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client. The default HTTP client has no timeout of its
// own; calls are bounded by the context of the Lambda invocation.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("coze: invalid base URL %q", c.baseURL)
	}
	return c, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return http.DefaultClient
}

func workflowChatURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base + "/workflows/chat"
	}
	return base + "/v1/workflows/chat"
}

// WorkflowChat runs a workflow chat and returns the upstream JSON body as-is.
// A non-2xx response with a JSON body is returned like any other so the
// caller can read Coze's error envelope.
func (c *Client) WorkflowChat(ctx context.Context, apiKey string, in domain.WorkflowChatRequest) (json.RawMessage, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("coze: api key must not be empty")
	}

	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("coze: marshal request: %w", err)
	}

	endpoint := workflowChatURL(c.baseURL)

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if reqErr != nil {
		return nil, fmt.Errorf("coze: create request: %w", reqErr)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return nil, fmt.Errorf("coze: request failed: %w", doErr)
	}
	defer func() { _ = res.Body.Close() }()

	buf, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("coze: read response body: %w", err)
	}

	var raw json.RawMessage
	if decErr := json.Unmarshal(buf, &raw); decErr != nil {
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			if len(buf) > maxErrorBody {
				buf = buf[:maxErrorBody]
			}
			return nil, &HTTPStatusError{
				StatusCode: res.StatusCode,
				URL:        endpoint,
				Body:       string(buf),
			}
		}
		return nil, fmt.Errorf("coze: decode response: %w", decErr)
	}
	return raw, nil
}
