package platform

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/kevinfinalboss/cmlporter/internal/logger"
	"github.com/kevinfinalboss/cmlporter/pkg/types"
)

const (
	DefaultTimeout = 60 * time.Second
	DefaultPage    = 100
	userAgent      = "cmlporter/1.0"
)

type Response struct {
	StatusCode int
	Body       []byte
}

type Client struct {
	baseURL    string
	username   string
	apiKey     string
	httpClient *http.Client
	logger     *logger.Logger

	mu       sync.Mutex
	apiV2Key string
}

func NewClient(cfg types.MigrationConfig, log *logger.Logger) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.CAPath != "" {
		pem, err := os.ReadFile(cfg.CAPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA bundle %s: %w", cfg.CAPath, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in CA bundle %s", cfg.CAPath)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		username: cfg.Username,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: transport,
		},
		logger: log,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) APIKey() string {
	return c.apiKey
}

func (c *Client) makeRequest(ctx context.Context, method, endpoint string, payload interface{}) (*Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	if strings.HasPrefix(endpoint, "/api/v2/") {
		key, err := c.v2Key(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+key)
	} else {
		req.SetBasicAuth(c.apiKey, "")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response of %s %s: %w", method, endpoint, err)
	}

	c.logger.Debug("api_request_completed").
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Send()

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// v2Key exchanges the legacy API key for a v2 bearer key once per client.
func (c *Client) v2Key(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.apiV2Key != "" {
		return c.apiV2Key, nil
	}

	endpoint := fmt.Sprintf("/api/v1/users/%s/apikey", url.PathEscape(c.username))
	resp, err := c.makeRequest(ctx, http.MethodPost, endpoint, map[string]interface{}{})
	if err != nil {
		return "", err
	}
	if err := expectStatus(resp, http.MethodPost, endpoint, http.StatusOK, http.StatusCreated); err != nil {
		return "", err
	}

	var out struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", fmt.Errorf("failed to decode api key response: %w", err)
	}
	if out.APIKey == "" {
		return "", fmt.Errorf("empty api key returned by %s", endpoint)
	}

	c.apiV2Key = out.APIKey
	return c.apiV2Key, nil
}

func expectStatus(resp *Response, method, endpoint string, codes ...int) error {
	for _, code := range codes {
		if resp.StatusCode == code {
			return nil
		}
	}
	return &StatusError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode, Body: truncate(string(resp.Body), 200)}
}

type StatusError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
