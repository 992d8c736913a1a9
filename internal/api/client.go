package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

var (
	// ErrRequestFailed marks a non-2xx response from the remote API.
	ErrRequestFailed = errors.New("api: request failed")
	// ErrBadResponse marks a 2xx response whose body does not match the
	// expected shape.
	ErrBadResponse = errors.New("api: malformed response")
)

// Client talks to the remote POS API. Every call carries the bearer token
// supplied by the token source, so a login that happens after the client is
// built is picked up automatically.
type Client struct {
	http  *resty.Client
	token func() string
}

// NewClient builds a client for baseURL. token may return "" when no session
// exists yet; such requests go out unauthenticated.
func NewClient(baseURL string, token func() string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{http: c, token: token}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	r := c.http.R().SetContext(ctx)
	if tok := c.token(); tok != "" {
		r.SetHeader("Authorization", "Bearer "+tok)
	}
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Login exchanges credentials for an opaque bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	resp, err := c.request(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		Post("/api/users/login")
	if err != nil {
		return "", fmt.Errorf("api: login request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("api: login failed with status %d: %s: %w", resp.StatusCode(), resp.String(), ErrRequestFailed)
	}

	var payload struct {
		Success bool   `json:"success"`
		Token   string `json:"token"`
		Data    struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return "", fmt.Errorf("api: failed to parse login response: %w", ErrBadResponse)
	}

	token := payload.Token
	if token == "" {
		token = payload.Data.Token
	}
	if token == "" {
		return "", fmt.Errorf("api: token not found in login response: %w", ErrBadResponse)
	}
	return token, nil
}

// ListProducts fetches catalog records, optionally filtered by a search term.
func (c *Client) ListProducts(ctx context.Context, search string) ([]Product, error) {
	req := c.request(ctx)
	if search != "" {
		req.SetQueryParam("search", search)
	}

	resp, err := req.Get("/api/products")
	if err != nil {
		return nil, fmt.Errorf("api: products request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("api: products request failed with status %d: %w", resp.StatusCode(), ErrRequestFailed)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("api: failed to parse products response: %w", ErrBadResponse)
	}

	var products []Product
	if err := json.Unmarshal(env.Data, &products); err != nil {
		return nil, fmt.Errorf("api: failed to parse products payload: %w", ErrBadResponse)
	}
	return products, nil
}

// CreateOrder submits a new order. idempotencyKey, when non-empty, is sent as
// an Idempotency-Key header so a replayed submission cannot create a
// duplicate order on the server.
func (c *Client) CreateOrder(ctx context.Context, orderReq OrderRequest, idempotencyKey string) (*Order, error) {
	req := c.request(ctx).SetBody(orderReq)
	if idempotencyKey != "" {
		req.SetHeader("Idempotency-Key", idempotencyKey)
	}

	resp, err := req.Post("/api/orders")
	if err != nil {
		return nil, fmt.Errorf("api: create order request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("api: create order failed with status %d: %s: %w", resp.StatusCode(), resp.String(), ErrRequestFailed)
	}

	return decodeOrder(resp.Body())
}

// UpdateOrder replaces an existing order in place, used by update-mode
// checkout.
func (c *Client) UpdateOrder(ctx context.Context, id string, orderReq OrderRequest) (*Order, error) {
	resp, err := c.request(ctx).SetBody(orderReq).Put("/api/orders/" + id)
	if err != nil {
		return nil, fmt.Errorf("api: update order request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("api: update order failed with status %d: %s: %w", resp.StatusCode(), resp.String(), ErrRequestFailed)
	}

	return decodeOrder(resp.Body())
}

// GetOrder fetches one order, used to pre-populate update-mode checkout.
func (c *Client) GetOrder(ctx context.Context, id string) (*Order, error) {
	resp, err := c.request(ctx).Get("/api/orders/" + id)
	if err != nil {
		return nil, fmt.Errorf("api: get order request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("api: get order failed with status %d: %w", resp.StatusCode(), ErrRequestFailed)
	}

	return decodeOrder(resp.Body())
}

// OrderHistory lists past orders for the given period (for example "day").
func (c *Client) OrderHistory(ctx context.Context, period string) ([]Order, error) {
	req := c.request(ctx)
	if period != "" {
		req.SetQueryParam("period", period)
	}

	resp, err := req.Get("/api/orders/history")
	if err != nil {
		return nil, fmt.Errorf("api: history request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("api: history request failed with status %d: %w", resp.StatusCode(), ErrRequestFailed)
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("api: failed to parse history response: %w", ErrBadResponse)
	}

	var orders []Order
	if err := json.Unmarshal(env.Data, &orders); err != nil {
		return nil, fmt.Errorf("api: failed to parse history payload: %w", ErrBadResponse)
	}
	return orders, nil
}

// Reachable reports whether the remote API answers at all. Any HTTP response
// counts; this probes connectivity, not endpoint health.
func (c *Client) Reachable(ctx context.Context) bool {
	_, err := c.http.R().SetContext(ctx).Head("/")
	if err != nil {
		log.Debug().Err(err).Msg("Connectivity probe failed")
		return false
	}
	return true
}

// The orders endpoints answer either {success, data: Order} or the order
// fields at the top level, depending on server version.
func decodeOrder(body []byte) (*Order, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("api: failed to parse order response: %w", ErrBadResponse)
	}

	var o Order
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &o); err != nil {
			return nil, fmt.Errorf("api: failed to parse order payload: %w", ErrBadResponse)
		}
		return &o, nil
	}

	if err := json.Unmarshal(body, &o); err != nil {
		return nil, fmt.Errorf("api: failed to parse order payload: %w", ErrBadResponse)
	}
	return &o, nil
}
