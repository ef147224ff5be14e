// Package yookassa is a minimal client for the YooKassa payments API:
// payment creation for checkout and authoritative re-fetch for webhook
// verification.
package yookassa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mathstore/storefront-api/internal/config"
)

// APIError is a non-2xx gateway response. The raw body is kept for
// diagnostics; this layer never retries.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("yookassa: status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	shopID    string
	secretKey string
	baseURL   string
	httpc     *http.Client
}

func NewClient(cfg config.YooKassaConfig) *Client {
	return &Client{
		shopID:    cfg.ShopID,
		secretKey: cfg.SecretKey,
		baseURL:   cfg.BaseURL,
		httpc:     &http.Client{Timeout: 10 * time.Second},
	}
}

// CreatePayment posts a payment-creation request. The idempotence key must
// be fresh per logical order; the gateway dedups retried requests by it, so
// reusing one across distinct orders would silently collapse them.
func (c *Client) CreatePayment(ctx context.Context, idempotenceKey string, req CreatePaymentRequest) (*Payment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(c.shopID, c.secretKey)
	httpReq.Header.Set("Idempotence-Key", idempotenceKey)
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(httpReq)
}

// GetPayment re-fetches a payment by id with server credentials. The
// reconciler uses this as the authoritative source instead of trusting
// webhook bodies.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/"+id, nil)
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(c.shopID, c.secretKey)
	return c.do(httpReq)
}

func (c *Client) do(req *http.Request) (*Payment, error) {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yookassa: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yookassa: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var p Payment
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("yookassa: decode response: %w", err)
	}
	return &p, nil
}
