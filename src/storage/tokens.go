package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TokenStore holds the persisted session credentials: exactly the two
// opaque token strings. An empty store means no session.
type TokenStore interface {
	// Access returns the stored access token, false when absent.
	Access() (string, bool)
	// Refresh returns the stored refresh token, false when absent.
	Refresh() (string, bool)
	// Save stores both tokens, replacing any previous pair.
	Save(access, refresh string) error
	// SetAccess replaces only the access token, keeping the refresh token.
	SetAccess(access string) error
	// Clear removes both tokens. Clearing an empty store is a no-op.
	Clear() error
}

type tokenFile struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// FileStore persists the token pair as a JSON file with 0600 permissions.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore at path, creating parent directories as
// needed.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create token directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) read() tokenFile {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return tokenFile{}
	}
	var tf tokenFile
	if err := json.Unmarshal(raw, &tf); err != nil {
		return tokenFile{}
	}
	return tf
}

// write replaces the file atomically so a crash never leaves half a pair.
func (s *FileStore) write(tf tokenFile) error {
	raw, err := json.Marshal(tf)
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

func (s *FileStore) Access() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tf := s.read()
	return tf.AccessToken, tf.AccessToken != ""
}

func (s *FileStore) Refresh() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tf := s.read()
	return tf.RefreshToken, tf.RefreshToken != ""
}

func (s *FileStore) Save(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(tokenFile{AccessToken: access, RefreshToken: refresh})
}

func (s *FileStore) SetAccess(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tf := s.read()
	tf.AccessToken = access
	return s.write(tf)
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// MemStore is an in-memory TokenStore used by tests and short-lived
// commands.
type MemStore struct {
	mu      sync.Mutex
	access  string
	refresh string
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Access() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access, s.access != ""
}

func (s *MemStore) Refresh() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh, s.refresh != ""
}

func (s *MemStore) Save(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = access, refresh
	return nil
}

func (s *MemStore) SetAccess(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = access
	return nil
}

func (s *MemStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access, s.refresh = "", ""
	return nil
}
