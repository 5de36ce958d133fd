// Package accounts provides the privileged S2S client the Transactions
// service uses against the Accounts internal surface.
package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/gdbank/gdb/internal/common"
	"github.com/gdbank/gdb/internal/interfaces"
	"github.com/gdbank/gdb/internal/models"
)

const (
	DefaultBaseURL   = "http://localhost:8001"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 50 // requests per second
)

// Compile-time interface check
var _ interfaces.AccountsClient = (*Client)(nil)

// Client implements the AccountsClient interface over the internal HTTP
// surface. Every request carries the shared internal token.
type Client struct {
	baseURL       string
	internalToken string
	httpClient    *http.Client
	logger        *common.Logger
	limiter       *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client (used in tests).
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new privileged accounts client.
func NewClient(internalToken string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:       DefaultBaseURL,
		internalToken: internalToken,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// errorBody is the wire form of a failed call.
type errorBody struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// do performs a rate-limited request and decodes the response. Transport
// failures and 5xx responses surface as CodeServiceUnavailable; 4xx responses
// carry the server's own error code through unchanged.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return models.WrapError(models.CodeServiceUnavailable, err, "rate limit wait")
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return models.WrapError(models.CodeStorageFailure, err, "failed to encode request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return models.WrapError(models.CodeServiceUnavailable, err, "failed to create request")
	}
	req.Header.Set("X-Internal-Token", c.internalToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("Accounts internal request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return models.WrapError(models.CodeServiceUnavailable, err, "accounts service timed out")
		}
		return models.WrapError(models.CodeServiceUnavailable, err, "accounts service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp, path)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return models.WrapError(models.CodeServiceUnavailable, err, "failed to decode response")
		}
	}
	return nil
}

// decodeError maps a non-2xx response to a DomainError, preserving the
// server's error code where the body carries one.
func (c *Client) decodeError(resp *http.Response, path string) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.ErrorCode != "" && resp.StatusCode < 500 {
		return models.NewError(models.ErrorCode(eb.ErrorCode), "%s", eb.Message)
	}

	c.logger.Warn().
		Int("status", resp.StatusCode).
		Str("path", path).
		Msg("Accounts internal request failed")
	return models.NewError(models.CodeServiceUnavailable,
		"accounts service returned status %d for %s", resp.StatusCode, path)
}

// Get returns the full account record, including ownership, for
// authorization decisions on the Transactions side.
func (c *Client) Get(ctx context.Context, account int64) (*models.Account, error) {
	var acct models.Account
	path := fmt.Sprintf("/api/v1/internal/accounts/%d", account)
	if err := c.do(ctx, http.MethodGet, path, nil, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

type privilegeResponse struct {
	AccountNumber int64            `json:"account_number"`
	Privilege     models.Privilege `json:"privilege"`
}

// GetPrivilege returns the account's tier.
func (c *Client) GetPrivilege(ctx context.Context, account int64) (models.Privilege, error) {
	var resp privilegeResponse
	path := fmt.Sprintf("/api/v1/internal/accounts/%d/privilege", account)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.Privilege, nil
}

// GetStatus returns the account's lifecycle view. A missing account reports
// Exists=false rather than an error.
func (c *Client) GetStatus(ctx context.Context, account int64) (models.ActiveStatus, error) {
	var resp models.ActiveStatus
	path := fmt.Sprintf("/api/v1/internal/accounts/%d/active", account)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return models.ActiveStatus{}, err
	}
	return resp, nil
}

type pinCheckRequest struct {
	Pin string `json:"pin"`
}

type pinCheckResponse struct {
	Valid bool `json:"valid"`
}

// VerifyPin checks the candidate PIN. False means wrong PIN or unknown
// account; the server never distinguishes the two.
func (c *Client) VerifyPin(ctx context.Context, account int64, pin string) (bool, error) {
	var resp pinCheckResponse
	path := fmt.Sprintf("/api/v1/internal/accounts/%d/verify-pin", account)
	if err := c.do(ctx, http.MethodPost, path, pinCheckRequest{Pin: pin}, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}

type balanceRequest struct {
	Amount models.Money `json:"amount"`
}

type balanceResponse struct {
	AccountNumber int64        `json:"account_number"`
	Balance       models.Money `json:"balance"`
}

// Debit deducts amount from the account's balance.
func (c *Client) Debit(ctx context.Context, account int64, amount models.Money) (models.Money, error) {
	var resp balanceResponse
	path := fmt.Sprintf("/api/v1/internal/accounts/%d/debit", account)
	if err := c.do(ctx, http.MethodPost, path, balanceRequest{Amount: amount}, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// Credit adds amount to the account's balance.
func (c *Client) Credit(ctx context.Context, account int64, amount models.Money) (models.Money, error) {
	var resp balanceResponse
	path := fmt.Sprintf("/api/v1/internal/accounts/%d/credit", account)
	if err := c.do(ctx, http.MethodPost, path, balanceRequest{Amount: amount}, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}
