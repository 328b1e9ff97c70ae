package paypal

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
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopcart/shopcart-backend/pkg/config"
	"github.com/shopcart/shopcart-backend/pkg/logger"
)

const tokenExpirySlack = 30 * time.Second

var (
	errCredentialsRequired = errors.New("paypal client id and secret are required")
)

// Client is a thin JSON client for the PayPal Orders v2 API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
	logger     *logger.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Order is the subset of the PayPal order resource the checkout flow needs.
type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Capture is the result of capturing an approved order.
type Capture struct {
	ID     string
	Status string
}

// NewClient validates the credentials and returns a client bound to the
// configured environment (sandbox by default).
func NewClient(cfg config.PayPalConfig, logg *logger.Logger) (*Client, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	secret := strings.TrimSpace(cfg.Secret)
	if clientID == "" || secret == "" {
		return nil, errCredentialsRequired
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		clientID:   clientID,
		secret:     secret,
		logger:     logg,
	}, nil
}

// CreateOrder opens a CAPTURE-intent order for the given amount in minor units.
func (c *Client) CreateOrder(ctx context.Context, amountMinorUnits int64, currency string) (*Order, error) {
	amount := decimal.New(amountMinorUnits, -2)
	body := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"amount": map[string]string{
					"currency_code": strings.ToUpper(currency),
					"value":         amount.StringFixed(2),
				},
			},
		},
	}

	var order Order
	if err := c.doJSON(ctx, http.MethodPost, "/v2/checkout/orders", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CaptureOrder captures an approved order and returns the capture reference.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Capture, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errors.New("paypal order id is required")
	}

	var result struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		PurchaseUnits []struct {
			Payments struct {
				Captures []struct {
					ID     string `json:"id"`
					Status string `json:"status"`
				} `json:"captures"`
			} `json:"payments"`
		} `json:"purchase_units"`
	}
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", url.PathEscape(orderID))
	if err := c.doJSON(ctx, http.MethodPost, path, map[string]any{}, &result); err != nil {
		return nil, err
	}

	capture := &Capture{ID: result.ID, Status: result.Status}
	for _, unit := range result.PurchaseUnits {
		for _, cap := range unit.Payments.Captures {
			capture.ID = cap.ID
			if cap.Status != "" {
				capture.Status = cap.Status
			}
		}
	}
	return capture, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, dest any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal paypal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paypal %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read paypal response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(method, path, resp.StatusCode, raw)
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode paypal response: %w", err)
	}
	return nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpirySlack)) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal token request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read paypal token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paypal token request: status %d: %s", resp.StatusCode, truncate(raw))
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &token); err != nil {
		return "", fmt.Errorf("decode paypal token response: %w", err)
	}
	if token.AccessToken == "" {
		return "", errors.New("paypal token response missing access_token")
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

// APIError is a non-2xx PayPal response with the machine-readable error name
// and detail issue codes parsed out, so callers can branch on the verdict
// instead of matching message text.
type APIError struct {
	Method string
	Path   string
	Status int
	Name   string
	Issues []string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// HasIssue reports whether the response carried the given detail issue code,
// e.g. INSTRUMENT_DECLINED.
func (e *APIError) HasIssue(code string) bool {
	for _, issue := range e.Issues {
		if issue == code {
			return true
		}
	}
	return false
}

func newAPIError(method, path string, status int, raw []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, Status: status, Body: truncate(raw)}

	var payload struct {
		Name    string `json:"name"`
		Details []struct {
			Issue string `json:"issue"`
		} `json:"details"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		apiErr.Name = payload.Name
		for _, detail := range payload.Details {
			if detail.Issue != "" {
				apiErr.Issues = append(apiErr.Issues, detail.Issue)
			}
		}
	}
	return apiErr
}

func truncate(raw []byte) string {
	const max = 512
	if len(raw) <= max {
		return string(raw)
	}
	return string(raw[:max]) + "..."
}
