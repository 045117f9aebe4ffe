package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-kasir/internal/resilience"
)

// ErrNotFound indicates the requested resource does not exist upstream.
var ErrNotFound = errors.New("upstream: resource not found")

// ErrUnavailable indicates the POS backend could not be reached. Callers
// surface it as a single generic message with a retry affordance; nothing in
// this service retries beyond the wrapped client's own attempts.
var ErrUnavailable = errors.New("upstream: pos backend unavailable")

// APIError carries a structured error returned by the POS backend.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Client is the typed HTTP client for the POS backend REST API. All calls go
// through a breaker-wrapped client; the base URL is injected once at startup.
type Client struct {
	BaseURL string
	HTTP    resilience.HTTPClient
}

// NewClient constructs a Client for the provided base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: baseURL,
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Breaker:     resilience.NewBreaker(10, 0.5, 30*time.Second).WithTarget("pos-upstream"),
			BaseBackoff: 100 * time.Millisecond,
			MaxAttempts: 3,
			Jitter:      0.2,
			Timeout:     timeout,
		},
	}
}

// ListProducts returns the product catalog page.
func (c *Client) ListProducts(ctx context.Context, page, limit int) ([]Product, error) {
	var env struct {
		Data []Product `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/products", pageQuery(page, limit), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetProduct returns one product by id.
func (c *Client) GetProduct(ctx context.Context, id string) (Product, error) {
	var env struct {
		Data Product `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/products/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return Product{}, err
	}
	return env.Data, nil
}

// CreateProduct creates a product.
func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	var env struct {
		Data Product `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/products", nil, in, &env); err != nil {
		return Product{}, err
	}
	return env.Data, nil
}

// UpdateProduct updates a product.
func (c *Client) UpdateProduct(ctx context.Context, id string, in ProductInput) (Product, error) {
	var env struct {
		Data Product `json:"data"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/products/"+url.PathEscape(id), nil, in, &env); err != nil {
		return Product{}, err
	}
	return env.Data, nil
}

// DeleteProduct removes a product.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, nil, nil)
}

// ListCustomers returns a customer page.
func (c *Client) ListCustomers(ctx context.Context, page, limit int) ([]Customer, error) {
	var env struct {
		Data []Customer `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/customers", pageQuery(page, limit), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetCustomer returns one customer by id.
func (c *Client) GetCustomer(ctx context.Context, id string) (Customer, error) {
	var env struct {
		Data Customer `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/customers/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return Customer{}, err
	}
	return env.Data, nil
}

// CreateCustomer creates a customer.
func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (Customer, error) {
	var env struct {
		Data Customer `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/customers", nil, in, &env); err != nil {
		return Customer{}, err
	}
	return env.Data, nil
}

// UpdateCustomer updates a customer.
func (c *Client) UpdateCustomer(ctx context.Context, id string, in CustomerInput) (Customer, error) {
	var env struct {
		Data Customer `json:"data"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/customers/"+url.PathEscape(id), nil, in, &env); err != nil {
		return Customer{}, err
	}
	return env.Data, nil
}

// DeleteCustomer removes a customer.
func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/customers/"+url.PathEscape(id), nil, nil, nil)
}

// ListSuppliers returns a supplier page.
func (c *Client) ListSuppliers(ctx context.Context, page, limit int) ([]Supplier, error) {
	var env struct {
		Data []Supplier `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/suppliers", pageQuery(page, limit), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetSupplier returns one supplier by id.
func (c *Client) GetSupplier(ctx context.Context, id string) (Supplier, error) {
	var env struct {
		Data Supplier `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/suppliers/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return Supplier{}, err
	}
	return env.Data, nil
}

// CreateSupplier creates a supplier.
func (c *Client) CreateSupplier(ctx context.Context, in SupplierInput) (Supplier, error) {
	var env struct {
		Data Supplier `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/suppliers", nil, in, &env); err != nil {
		return Supplier{}, err
	}
	return env.Data, nil
}

// UpdateSupplier updates a supplier.
func (c *Client) UpdateSupplier(ctx context.Context, id string, in SupplierInput) (Supplier, error) {
	var env struct {
		Data Supplier `json:"data"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/suppliers/"+url.PathEscape(id), nil, in, &env); err != nil {
		return Supplier{}, err
	}
	return env.Data, nil
}

// DeleteSupplier removes a supplier.
func (c *Client) DeleteSupplier(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/suppliers/"+url.PathEscape(id), nil, nil, nil)
}

// ListTransactions returns a transaction page.
func (c *Client) ListTransactions(ctx context.Context, page, limit int) ([]Transaction, error) {
	var env struct {
		Data []Transaction `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/transactions", pageQuery(page, limit), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetTransaction returns one transaction by id.
func (c *Client) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	var env struct {
		Data Transaction `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/transactions/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return Transaction{}, err
	}
	return env.Data, nil
}

// CreateTransaction posts a finalized transaction-creation payload.
func (c *Client) CreateTransaction(ctx context.Context, in CreateTransactionRequest) (Transaction, error) {
	var env struct {
		Data Transaction `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/transactions", nil, in, &env); err != nil {
		return Transaction{}, err
	}
	return env.Data, nil
}

// ListPayments returns a payment page.
func (c *Client) ListPayments(ctx context.Context, page, limit int) ([]Payment, error) {
	var env struct {
		Data []Payment `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/payments", pageQuery(page, limit), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetPayment returns one payment, including its installment history.
func (c *Client) GetPayment(ctx context.Context, id string) (Payment, error) {
	var env struct {
		Data Payment `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/payments/"+url.PathEscape(id), nil, nil, &env); err != nil {
		return Payment{}, err
	}
	return env.Data, nil
}

// UpdatePayment commits a payment update that has already passed validation.
func (c *Client) UpdatePayment(ctx context.Context, id string, in UpdatePaymentRequest) (Payment, error) {
	var env struct {
		Data Payment `json:"data"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/payments/"+url.PathEscape(id), nil, in, &env); err != nil {
		return Payment{}, err
	}
	return env.Data, nil
}

// Ping probes upstream reachability for readiness checks.
func (c *Client) Ping(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if c == nil || c.HTTP.Client == nil {
		return errors.New("upstream: client not configured")
	}
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("upstream: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("upstream: decode response: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Code: "UPSTREAM", Message: resp.Status}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && json.Unmarshal(data, &envelope) == nil {
		if envelope.Error.Code != "" {
			apiErr.Code = envelope.Error.Code
		}
		if envelope.Error.Message != "" {
			apiErr.Message = envelope.Error.Message
		}
	}
	return apiErr
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}
