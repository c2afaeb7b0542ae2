package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sahilchouksey/skill-academy/utils/metrics"
	"go.uber.org/zap"
)

const (
	// BaseURL is the Razorpay API base URL
	BaseURL = "https://api.razorpay.com"
	// DefaultTimeout is the HTTP client timeout for API calls
	DefaultTimeout = 15 * time.Second
)

// Client talks to the Razorpay Orders API
type Client struct {
	keyID       string
	keySecret   string
	baseURL     string
	httpClient  *http.Client
	retryConfig RetryConfig
	log         *zap.Logger
}

// Config holds configuration for the Razorpay client
type Config struct {
	KeyID       string
	KeySecret   string
	BaseURL     string
	Timeout     time.Duration
	RetryConfig *RetryConfig
	HTTPClient  *http.Client // optional, mainly for tests
	Logger      *zap.Logger
}

// RetryConfig holds retry configuration for failed requests
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig retries rate-limited requests twice with exponential backoff
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 300 * time.Millisecond,
		MaxBackoff:     3 * time.Second,
	}
}

// NewClient creates a new Razorpay API client
func NewClient(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	retryConfig := DefaultRetryConfig()
	if config.RetryConfig != nil {
		retryConfig = *config.RetryConfig
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Client{
		keyID:       config.KeyID,
		keySecret:   config.KeySecret,
		baseURL:     config.BaseURL,
		httpClient:  httpClient,
		retryConfig: retryConfig,
		log:         log,
	}
}

// KeyID is the public key the browser checkout widget needs
func (c *Client) KeyID() string {
	return c.keyID
}

// OrderRequest is the body of POST /v1/orders
type OrderRequest struct {
	Amount   int64             `json:"amount"` // minor units
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Order is a gateway-side payment intent
type Order struct {
	ID         string            `json:"id"`
	Entity     string            `json:"entity"`
	Amount     int64             `json:"amount"`
	AmountPaid int64             `json:"amount_paid"`
	AmountDue  int64             `json:"amount_due"`
	Currency   string            `json:"currency"`
	Receipt    string            `json:"receipt"`
	Status     string            `json:"status"`
	Attempts   int               `json:"attempts"`
	Notes      map[string]string `json:"notes"`
	CreatedAt  int64             `json:"created_at"`
}

// CreateOrder registers a new order with Razorpay
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("order amount must be positive, got %d", req.Amount)
	}

	var order Order
	if err := c.doRequest(ctx, "create_order", http.MethodPost, "/v1/orders", req, &order); err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay returned an order without id")
	}

	return &order, nil
}

// doRequest performs a JSON request with basic auth, retrying only
// responses for which IsRetryableStatusCode holds
func (c *Client) doRequest(ctx context.Context, operation, method, endpoint string, body interface{}, result interface{}) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryConfig.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := CalculateBackoff(attempt-1, c.retryConfig)
			c.log.Warn("retrying razorpay request",
				zap.String("operation", operation),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		status, err := c.send(ctx, operation, method, endpoint, payload, result)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryableStatusCode(status) {
			return err
		}
	}

	return lastErr
}

func (c *Client) send(ctx context.Context, operation, method, endpoint string, payload []byte, result interface{}) (int, error) {
	start := time.Now()

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.GatewayRequestDuration.WithLabelValues(operation, "transport_error").Observe(time.Since(start).Seconds())
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.GatewayRequestDuration.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error APIError `json:"error"`
		}
		if err := json.Unmarshal(respBody, &envelope); err != nil || envelope.Error.Description == "" {
			return resp.StatusCode, &APIError{
				StatusCode:  resp.StatusCode,
				Description: string(respBody),
			}
		}
		envelope.Error.StatusCode = resp.StatusCode
		return resp.StatusCode, &envelope.Error
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp.StatusCode, nil
}

// IsRetryableStatusCode reports whether the gateway refused the request
// without acting on it. A 5xx or transport error may follow a committed
// order, and POST /v1/orders has no idempotency key, so neither is retried.
func IsRetryableStatusCode(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests
}

// CalculateBackoff returns initialBackoff * 2^attempt, capped at maxBackoff
func CalculateBackoff(attempt int, config RetryConfig) time.Duration {
	backoff := config.InitialBackoff * time.Duration(1<<uint(attempt))
	if backoff > config.MaxBackoff {
		return config.MaxBackoff
	}
	return backoff
}

// APIError is the "error" object of a Razorpay error response
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Step        string `json:"step"`
	Reason      string `json:"reason"`
	Field       string `json:"field"`
	StatusCode  int    `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("razorpay API error (status %d): %s", e.StatusCode, e.Description)
	}
	return fmt.Sprintf("razorpay API error %s (status %d): %s", e.Code, e.StatusCode, e.Description)
}
