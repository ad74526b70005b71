package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shareit/internal/models"
)

const maxResponseBytes = 4 << 20

// ErrResponseTooLarge is returned instead of a truncated server response.
var ErrResponseTooLarge = errors.New("server response too large")

// Response is the server's answer, kept raw so it can be proxied verbatim.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Forwarder sends a validated request on to the server.
type Forwarder interface {
	Forward(ctx context.Context, r *http.Request, body []byte) (*Response, error)
}

// ServerClient forwards gateway requests to the shareit server.
type ServerClient struct {
	baseURL      string
	apiKey       string
	apiKeyHeader string
	httpClient   *http.Client
}

// NewServerClient constructs a client with baseURL and an optional API key.
func NewServerClient(baseURL, apiKey, apiKeyHeader string, timeout time.Duration) *ServerClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if apiKeyHeader == "" {
		apiKeyHeader = "x-api-key"
	}
	return &ServerClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		apiKeyHeader: apiKeyHeader,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Forward replays method, path, query and body together with the principal
// and request id headers.
func (c *ServerClient) Forward(ctx context.Context, r *http.Request, body []byte) (*Response, error) {
	endpoint := c.baseURL + r.URL.Path
	if r.URL.RawQuery != "" {
		endpoint += "?" + r.URL.RawQuery
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	c.addHeaders(req, r)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forward %s %s: %w", r.Method, r.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response of %s %s: %w", r.Method, r.URL.Path, err)
	}
	if len(data) > maxResponseBytes {
		return nil, fmt.Errorf("%s %s: %w", r.Method, r.URL.Path, ErrResponseTooLarge)
	}
	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

func (c *ServerClient) addHeaders(req, src *http.Request) {
	if ct := src.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	} else if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if v := src.Header.Get(models.UserIDHeader); v != "" {
		req.Header.Set(models.UserIDHeader, v)
	}
	if v := src.Header.Get(models.RequestIDHeader); v != "" {
		req.Header.Set(models.RequestIDHeader, v)
	}
	if c.apiKey != "" {
		req.Header.Set(c.apiKeyHeader, c.apiKey)
	}
}
