// Package apiclient is the console's single path to the backend. It attaches
// the stored access token to every request and, on a 401, refreshes the token
// pair once and replays the request.
package apiclient

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

	"erpconsole/internal/logger"
	"erpconsole/internal/tokenstore"

	"golang.org/x/sync/singleflight"
)

// Meta is the paging block of a list response.
type Meta struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

type envelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Data       json.RawMessage `json:"data"`
	Meta       *Meta           `json:"meta"`
	Error      string          `json:"error"`
	Detail     json.RawMessage `json:"detail"`
}

type tokenPair struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	TokenType    string           `json:"token_type"`
	User         *tokenstore.User `json:"user"`
}

// RefreshPath is the endpoint used to exchange a refresh token.
const RefreshPath = "/auth/refresh"

// Client sends JSON requests to the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      tokenstore.Store
	refreshes  singleflight.Group

	mu            sync.Mutex
	onAuthCleared []func()
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func New(baseURL string, store tokenstore.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root, e.g. http://localhost:8080/api/v1.
func (c *Client) BaseURL() string { return c.baseURL }

// Store returns the token store the client reads credentials from.
func (c *Client) Store() tokenstore.Store { return c.store }

// OnAuthCleared registers fn to run whenever the client wipes the stored
// credentials after a failed refresh.
func (c *Client) OnAuthCleared(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAuthCleared = append(c.onAuthCleared, fn)
}

// Get decodes the data of GET path into out and returns the paging block, if any.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) (*Meta, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	_, err := c.Do(ctx, http.MethodPost, path, nil, body, out)
	return err
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	_, err := c.Do(ctx, http.MethodPut, path, nil, body, out)
	return err
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, nil, out)
	return err
}

// Do sends one request. A 401 triggers at most one refresh and one replay.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (*Meta, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	token := c.store.AccessToken()
	env, err := c.send(ctx, method, path, query, payload, token)
	if IsUnauthorized(err) && refreshable(path) {
		token, err = c.recover(ctx, token, err)
		if err == nil {
			env, err = c.send(ctx, method, path, query, payload, token)
		}
	}
	if err != nil {
		log := logger.WithComponent("apiclient")
		log.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return nil, err
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return env.Meta, nil
}

// refreshable reports whether a 401 on path should trigger a refresh. Credential
// endpoints answer 401 for bad input, not for an expired session.
func refreshable(path string) bool {
	return !strings.HasPrefix(path, "/auth/") || path == "/auth/me"
}

// recover handles a 401 and returns the access token to replay with.
func (c *Client) recover(ctx context.Context, failedToken string, original error) (string, error) {
	if c.store.RefreshToken() == "" {
		c.clearAuth()
		return "", original
	}
	// Another request already refreshed after this one was sent.
	if current := c.store.AccessToken(); current != "" && current != failedToken {
		return current, nil
	}

	v, err, _ := c.refreshes.Do("refresh", func() (interface{}, error) {
		return c.refresh(context.WithoutCancel(ctx), failedToken)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) refresh(ctx context.Context, failedToken string) (string, error) {
	if locker, ok := c.store.(tokenstore.Locker); ok {
		unlock, err := locker.Lock(ctx)
		if err != nil {
			return "", err
		}
		defer unlock()
		if current := c.store.AccessToken(); current != "" && current != failedToken {
			return current, nil
		}
	}

	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		c.clearAuth()
		return "", &APIError{Status: http.StatusUnauthorized, Message: "session expired"}
	}
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return "", err
	}

	env, err := c.send(ctx, http.MethodPost, RefreshPath, nil, payload, "")
	if err != nil {
		log := logger.WithComponent("apiclient")
		log.Warn().Err(err).Msg("token refresh failed, clearing session")
		c.clearAuth()
		return "", err
	}

	var pair tokenPair
	if err := json.Unmarshal(env.Data, &pair); err != nil {
		c.clearAuth()
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if pair.AccessToken == "" {
		c.clearAuth()
		return "", errors.New("refresh response carried no access token")
	}
	if err := c.store.SetAuthFromTokens(pair.AccessToken, pair.RefreshToken, pair.User); err != nil {
		return "", fmt.Errorf("persist refreshed tokens: %w", err)
	}
	return pair.AccessToken, nil
}

func (c *Client) clearAuth() {
	if err := c.store.ClearAuth(); err != nil {
		log := logger.WithComponent("apiclient")
		log.Error().Err(err).Msg("failed to clear session")
	}
	c.mu.Lock()
	callbacks := append([]func(){}, c.onAuthCleared...)
	c.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token string) (*envelope, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	log := logger.WithComponent("apiclient")
	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Dur("latency", time.Since(start)).Msg("request")

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decodeErr != nil && len(bytes.TrimSpace(raw)) > 0 {
			return nil, fmt.Errorf("decode %s %s: %w", method, path, decodeErr)
		}
		return &env, nil
	}
	return nil, errorFrom(resp.StatusCode, &env, decodeErr, raw)
}

// errorFrom builds an APIError from an error envelope. The detail block may be
// a field list or a plain string.
func errorFrom(status int, env *envelope, decodeErr error, raw []byte) *APIError {
	apiErr := &APIError{Status: status}
	if decodeErr != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
		return apiErr
	}

	apiErr.Message = env.Error
	if len(env.Detail) > 0 {
		var fields []FieldError
		var text string
		switch {
		case json.Unmarshal(env.Detail, &fields) == nil:
			apiErr.Fields = fields
		case json.Unmarshal(env.Detail, &text) == nil && apiErr.Message == "":
			apiErr.Message = text
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
