// Package api implements the HTTP client for the reservation backend.
//
// Every call is single-shot: no retries, no caching. Non-2xx responses are
// turned into *errs.APIError carrying the server's message field, with a
// per-call fallback when the body is absent or unparseable.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ticketbooth/internal/convert"
	"ticketbooth/internal/errs"
	"ticketbooth/internal/model"
)

// DefaultTimeout bounds every request so a stalled call cannot hold an
// in-flight marker forever.
const DefaultTimeout = 15 * time.Second

// TokenSource yields the current bearer token, or "" for anonymous calls.
type TokenSource func() string

// Client talks to the reservation REST API.
type Client struct {
	baseURL string
	httpc   *http.Client
	token   TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests, custom TLS).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithTokenSource sets the bearer token provider used on every request.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// New builds a Client for the given base URL (scheme://host[:port][/prefix]).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: DefaultTimeout},
		token:   func() string { return "" },
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// do performs one request and decodes a 2xx JSON body into out (out may be
// nil). On non-2xx it returns *errs.APIError with the server message, or
// fallback when no message can be read.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, fallback string) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fallback
		var errBody struct {
			Message string `json:"message"`
		}
		if decErr := json.NewDecoder(resp.Body).Decode(&errBody); decErr == nil && errBody.Message != "" {
			msg = errBody.Message
		}
		return &errs.APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// AuthResult is the outcome of login/register. Role and UserID may be empty
// on login when the backend omits them; callers then resolve identity via Me.
type AuthResult struct {
	Token  string
	Role   model.Role
	UserID string
}

type authDoc struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ID          string `json:"_id"`
}

// Login authenticates with email/password.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var doc authDoc
	if err := c.do(ctx, http.MethodPost, "/user/auth/login", nil, body, &doc, "Login failed"); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: doc.AccessToken, Role: model.Role(doc.Role), UserID: doc.ID}, nil
}

// Register creates an account and returns a fresh session.
func (c *Client) Register(ctx context.Context, name, email, password string, role model.Role) (AuthResult, error) {
	body := map[string]string{"name": name, "email": email, "password": password, "role": string(role)}
	var doc authDoc
	if err := c.do(ctx, http.MethodPost, "/user/auth/register", nil, body, &doc, "Sign up failed"); err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Token: doc.AccessToken, Role: model.Role(doc.Role), UserID: doc.ID}, nil
}

// Me returns the canonical user record for the current token.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var doc convert.UserDoc
	if err := c.do(ctx, http.MethodGet, "/user/auth/me", nil, nil, &doc, "Failed to fetch user info"); err != nil {
		return model.User{}, err
	}
	return convert.UserToModel(doc), nil
}

// ListConcertsParams selects a page of concerts. A non-empty UserID asks the
// backend to embed that user's reservation state per concert.
type ListConcertsParams struct {
	UserID string
	Page   int
	Limit  int
}

type concertPageDoc struct {
	Data []convert.ConcertDoc `json:"data"`
	Meta convert.MetaDoc      `json:"meta"`
}

// ListConcerts fetches one page of concerts.
func (c *Client) ListConcerts(ctx context.Context, p ListConcertsParams) (model.ConcertPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.UserID != "" {
		q.Set("userId", p.UserID)
	}
	var doc concertPageDoc
	if err := c.do(ctx, http.MethodGet, "/concerts/list", q, nil, &doc, "Failed to fetch concerts"); err != nil {
		return model.ConcertPage{}, err
	}
	return model.ConcertPage{
		Concerts: convert.ConcertsToModel(doc.Data),
		Meta:     convert.MetaToModel(doc.Meta),
	}, nil
}

// CreateConcertParams describes a new concert.
type CreateConcertParams struct {
	Name        string
	Description string
	MaxSeats    int
}

// CreateConcert creates a concert (admin only).
func (c *Client) CreateConcert(ctx context.Context, p CreateConcertParams) (model.Concert, error) {
	body := map[string]any{"name": p.Name, "description": p.Description, "maxSeats": p.MaxSeats}
	var doc convert.ConcertDoc
	if err := c.do(ctx, http.MethodPost, "/concerts/create", nil, body, &doc, "Failed to create concert"); err != nil {
		return model.Concert{}, err
	}
	return convert.ConcertToModel(doc), nil
}

// CancelConcert soft-deletes a concert (admin only).
func (c *Client) CancelConcert(ctx context.Context, concertID string) (model.Concert, error) {
	body := map[string]string{"status": "cancelled"}
	var doc convert.ConcertDoc
	path := "/concerts/" + url.PathEscape(concertID) + "/cancel"
	if err := c.do(ctx, http.MethodPatch, path, nil, body, &doc, "Failed to cancel concert"); err != nil {
		return model.Concert{}, err
	}
	return convert.ConcertToModel(doc), nil
}

// Reserve claims a seat on a concert for the user and returns the new
// reservation id.
func (c *Client) Reserve(ctx context.Context, userID, concertID string) (string, error) {
	var doc struct {
		ID string `json:"_id"`
	}
	path := "/reserve/" + url.PathEscape(userID) + "/" + url.PathEscape(concertID)
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &doc, "Failed to reserve"); err != nil {
		return "", err
	}
	return doc.ID, nil
}

// CancelReservation releases the user's reservation on a concert.
func (c *Client) CancelReservation(ctx context.Context, userID, concertID string) error {
	path := "/reserve/" + url.PathEscape(userID) + "/" + url.PathEscape(concertID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil, "Failed to cancel")
}

// DashboardStats fetches the admin aggregate counters.
func (c *Client) DashboardStats(ctx context.Context) (model.DashboardStats, error) {
	var doc convert.StatsDoc
	if err := c.do(ctx, http.MethodGet, "/reserve/dashboard", nil, nil, &doc, "Failed to fetch dashboard stats"); err != nil {
		return model.DashboardStats{}, err
	}
	return convert.StatsToModel(doc), nil
}

// ListTransactionsParams selects a page of the audit history. Admin=true
// requests the global history; otherwise UserID scopes it to one user.
type ListTransactionsParams struct {
	Admin  bool
	UserID string
	Page   int
	Limit  int
}

type transactionPageDoc struct {
	Data []convert.TransactionDoc `json:"data"`
	Meta convert.MetaDoc          `json:"meta"`
}

// ListTransactions fetches one page of the audit history.
func (c *Client) ListTransactions(ctx context.Context, p ListTransactionsParams) (model.TransactionPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.Admin {
		q.Set("admin", "true")
	} else if p.UserID != "" {
		q.Set("userId", p.UserID)
	}
	var doc transactionPageDoc
	if err := c.do(ctx, http.MethodGet, "/transactions/list", q, nil, &doc, "Failed to fetch transactions"); err != nil {
		return model.TransactionPage{}, err
	}
	return model.TransactionPage{
		Transactions: convert.TransactionsToModel(doc.Data),
		Meta:         convert.MetaToModel(doc.Meta),
	}, nil
}
