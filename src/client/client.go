package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"laundry-client/src/schemas"
	"laundry-client/src/storage"
)

// RefreshPath is the token refresh endpoint. A 401 from this path is never
// itself recovered by a refresh.
const RefreshPath = "/api/token/refresh/"

var errNoRefreshToken = errors.New("no refresh token stored")

// Client is the single configured request sender. It attaches the stored
// bearer token to every request and transparently recovers from a 401
// exactly once per request by exchanging the refresh token for a new
// access token and replaying the request.
//
// Session state lives in the TokenStore rather than in a mutable default
// header, so concurrent callers always read a consistent token.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  storage.TokenStore
	log     *logrus.Logger

	// refreshMu serializes refresh attempts so simultaneous 401s do not
	// race each other to the refresh endpoint.
	refreshMu sync.Mutex
}

// New creates a Client for the given API base URL.
func New(baseURL string, tokens storage.TokenStore, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.New()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		log:     log,
	}
}

// Get issues a GET request and decodes the response body into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, false)
}

// Post issues a POST request with a JSON body and decodes the response
// into out. Both body and out may be nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out, false)
}

// Patch issues a PATCH request with a JSON body and decodes the response
// into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, out, false)
}

// do sends one request. retried marks a replay after a token refresh; a
// replayed request is never refreshed again, which bounds the recovery to
// one refresh-and-replay per original request.
func (c *Client) do(ctx context.Context, method, path string, body, out any, retried bool) error {
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = raw
	}

	access, _ := c.tokens.Access()
	resp, respBody, err := c.send(ctx, method, path, payload, access)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
		return nil
	}

	apiErr := schemas.NewAPIError(resp.StatusCode, respBody)

	if resp.StatusCode == http.StatusUnauthorized && path != RefreshPath && !retried {
		if err := c.refresh(ctx, access); err != nil {
			if errors.Is(err, errNoRefreshToken) {
				// Nothing to recover with; the original 401 stands.
				return apiErr
			}
			return err
		}
		c.log.WithField("path", path).Debug("access token refreshed, replaying request")
		return c.do(ctx, method, path, body, out, true)
	}

	return apiErr
}

// send performs a single HTTP exchange and reads the whole body.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, access string) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, schemas.NewNetworkError(url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, schemas.NewNetworkError(url, err)
	}
	return resp, respBody, nil
}

// refresh exchanges the stored refresh token for a new access token.
// staleAccess is the access token the failing request carried: when the
// stored token already differs, another caller refreshed in the meantime
// and no network call is needed. On refresh failure both tokens are
// cleared, ending the session.
func (c *Client) refresh(ctx context.Context, staleAccess string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current, ok := c.tokens.Access(); ok && current != staleAccess {
		return nil
	}

	refreshToken, ok := c.tokens.Refresh()
	if !ok {
		return errNoRefreshToken
	}

	payload, err := json.Marshal(schemas.RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return fmt.Errorf("failed to encode refresh request: %w", err)
	}

	resp, respBody, err := c.send(ctx, http.MethodPost, RefreshPath, payload, "")
	if err != nil {
		c.clearSession()
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.clearSession()
		return schemas.NewAPIError(resp.StatusCode, respBody)
	}

	var refreshed schemas.RefreshResponse
	if err := json.Unmarshal(respBody, &refreshed); err != nil {
		c.clearSession()
		return fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if refreshed.Access == "" {
		c.clearSession()
		return schemas.NewAuthError("refresh returned an empty access token")
	}

	if err := c.tokens.SetAccess(refreshed.Access); err != nil {
		return fmt.Errorf("failed to persist refreshed access token: %w", err)
	}
	return nil
}

func (c *Client) clearSession() {
	if err := c.tokens.Clear(); err != nil {
		c.log.WithError(err).Warn("failed to clear token store")
	}
}
