package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-payment-status/app/entity"
)

const (
	DefaultStatusPath = "/paymentstatus/{id}"
	maxBodyBytes      = 1 << 20
)

type HTTPStatusClientConfig struct {
	// BaseURL of the gateway, without trailing slash.
	BaseURL string

	// StatusPath is appended to BaseURL; "{id}" is replaced by the escaped
	// payment identifier.
	StatusPath string

	// Method is GET or POST. POST sends {"payment_id": "..."} as body.
	Method string

	Headers    map[string]string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type HTTPStatusClient struct {
	baseURL    string
	statusPath string
	method     string
	headers    map[string]string
	httpClient *http.Client
}

func NewHTTPStatusClient(cfg *HTTPStatusClientConfig) *HTTPStatusClient {
	if cfg == nil {
		cfg = &HTTPStatusClientConfig{}
	}

	statusPath := cfg.StatusPath
	if statusPath == "" {
		statusPath = DefaultStatusPath
	}

	method := strings.ToUpper(cfg.Method)
	if method != http.MethodPost {
		method = http.MethodGet
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &HTTPStatusClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		statusPath: statusPath,
		method:     method,
		headers:    cfg.Headers,
		httpClient: httpClient,
	}
}

func (c *HTTPStatusClient) CheckStatus(ctx context.Context, paymentID string) (*StatusResponse, error) {
	endpoint := c.baseURL + strings.ReplaceAll(c.statusPath, "{id}", url.PathEscape(paymentID))

	var body io.Reader
	if c.method == http.MethodPost {
		payload, err := json.Marshal(map[string]string{"payment_id": paymentID})
		if err != nil {
			return nil, fmt.Errorf("failed to encode status request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, c.method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %w", entity.ErrUnreachable, err)
	}

	return &StatusResponse{StatusCode: resp.StatusCode, Body: raw}, nil
}
