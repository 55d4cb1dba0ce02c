package cryptopay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/propdesk/propdesk-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.cryptopay.dev"
	defaultTimeout             = 15 * time.Second
	responseBodyReadLimit int64 = 1024
)

var (
	errAPIKeyRequired = errors.New("cryptopay api key is required")
)

// Client wraps the Cryptopay hosted-invoice API used for crypto payments.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured Cryptopay base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the Cryptopay client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// CreatePaymentRequest describes a new hosted invoice.
type CreatePaymentRequest struct {
	PriceAmount      decimal.Decimal
	PriceCurrency    string
	PayCurrency      string
	OrderID          string
	OrderDescription string
	CustomerEmail    string
}

// Payment is the normalized invoice returned by Cryptopay.
type Payment struct {
	PaymentID     string
	PaymentStatus string
	PayAddress    string
	PayAmount     decimal.Decimal
	PayCurrency   string
	InvoiceURL    string
}

// CreatePayment creates a hosted invoice for the given order.
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*Payment, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cryptopay client not configured")
	}
	if req.PriceAmount.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price amount must be positive")
	}
	if strings.TrimSpace(req.PayCurrency) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pay currency is required")
	}
	if strings.TrimSpace(req.OrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order ID is required")
	}

	priceCurrency := strings.ToLower(strings.TrimSpace(req.PriceCurrency))
	if priceCurrency == "" {
		priceCurrency = "usd"
	}

	body := map[string]any{
		"price_amount":      req.PriceAmount.StringFixed(2),
		"price_currency":    priceCurrency,
		"pay_currency":      strings.ToLower(strings.TrimSpace(req.PayCurrency)),
		"order_id":          req.OrderID,
		"order_description": req.OrderDescription,
	}
	if strings.TrimSpace(req.CustomerEmail) != "" {
		body["customer_email"] = req.CustomerEmail
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal payment request")
	}

	url := c.buildURL("v1/payment")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build payment request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute payment request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "payment request failed")
	}

	var apiResp struct {
		PaymentID     json.Number `json:"payment_id"`
		PaymentStatus string      `json:"payment_status"`
		PayAddress    string      `json:"pay_address"`
		PayAmount     json.Number `json:"pay_amount"`
		PayCurrency   string      `json:"pay_currency"`
		InvoiceURL    string      `json:"invoice_url"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment response")
	}

	paymentID := strings.TrimSpace(apiResp.PaymentID.String())
	if paymentID == "" || paymentID == "0" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment response missing payment_id")
	}
	if strings.TrimSpace(apiResp.PayAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment response missing pay_address")
	}
	if strings.TrimSpace(apiResp.PaymentStatus) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment response missing payment_status")
	}

	payAmount, err := decimal.NewFromString(apiResp.PayAmount.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parse pay_amount")
	}

	return &Payment{
		PaymentID:     paymentID,
		PaymentStatus: apiResp.PaymentStatus,
		PayAddress:    apiResp.PayAddress,
		PayAmount:     payAmount,
		PayCurrency:   apiResp.PayCurrency,
		InvoiceURL:    apiResp.InvoiceURL,
	}, nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
