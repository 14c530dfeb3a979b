package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"laundry-client/src/client"
	"laundry-client/src/models"
	"laundry-client/src/schemas"
	"laundry-client/src/storage"
)

// Manager owns the current authenticated identity. It moves between
// anonymous and authenticated strictly through Login/Logout: there is no
// authenticated state without a successful profile fetch.
type Manager struct {
	api    *client.Client
	tokens storage.TokenStore
	log    *logrus.Logger

	mu   sync.Mutex
	user *models.User
}

// NewManager creates a session manager on top of the request client and
// the shared token store.
func NewManager(api *client.Client, tokens storage.TokenStore, log *logrus.Logger) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{api: api, tokens: tokens, log: log}
}

// Login authenticates with the backend. A payload with an explicit failure
// flag becomes an AuthError carrying the server message. On success both
// tokens are persisted and the full profile is fetched; the user embedded
// in the login response is not trusted as the source of truth.
func (m *Manager) Login(ctx context.Context, creds schemas.Credentials) (*models.User, error) {
	// Drop any stale session before authenticating.
	if err := m.tokens.Clear(); err != nil {
		return nil, fmt.Errorf("failed to clear stale session: %w", err)
	}

	var resp schemas.LoginResponse
	if err := m.api.Post(ctx, "/api/login/", creds, &resp); err != nil {
		var apiErr *schemas.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return nil, schemas.NewAuthError(apiErr.Message)
		}
		return nil, err
	}
	if resp.Rejected() {
		msg := resp.Message
		if msg == "" {
			msg = "login failed"
		}
		return nil, schemas.NewAuthError(msg)
	}

	if err := m.tokens.Save(resp.Data.Tokens.Access, resp.Data.Tokens.Refresh); err != nil {
		return nil, fmt.Errorf("failed to persist tokens: %w", err)
	}

	user, err := m.FetchCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("Logged in")
	return user, nil
}

// FetchCurrentUser loads the profile of the token owner and caches it.
// Any failure ends the session: a token that cannot fetch its own profile
// is treated as invalid rather than leaving a half-authenticated state.
func (m *Manager) FetchCurrentUser(ctx context.Context) (*models.User, error) {
	var resp schemas.ProfileResponse
	if err := m.api.Get(ctx, "/api/profile/", &resp); err != nil {
		m.log.WithError(err).Warn("Profile fetch failed, ending session")
		m.Logout()
		return nil, err
	}

	m.mu.Lock()
	m.user = &resp.Data
	m.mu.Unlock()
	return &resp.Data, nil
}

// Register creates a new account. Server errors (e.g. a duplicate-account
// conflict) propagate verbatim for the caller to render.
func (m *Manager) Register(ctx context.Context, req schemas.RegisterRequest) error {
	return m.api.Post(ctx, "/api/users/", req, nil)
}

// Logout clears the in-memory identity and the persisted tokens. Calling
// it on an anonymous session is a no-op.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
	if err := m.tokens.Clear(); err != nil {
		m.log.WithError(err).Warn("failed to clear token store on logout")
	}
}

// Current returns the cached user, or nil when anonymous.
func (m *Manager) Current() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Authenticated reports whether a profile fetch has succeeded since the
// last Logout.
func (m *Manager) Authenticated() bool {
	return m.Current() != nil
}

// Resume restores a session from persisted tokens, the equivalent of
// reopening the app with a stored token pair. Without a stored access
// token it leaves the session anonymous and returns nil.
func (m *Manager) Resume(ctx context.Context) (*models.User, error) {
	if _, ok := m.tokens.Access(); !ok {
		return nil, nil
	}
	return m.FetchCurrentUser(ctx)
}
