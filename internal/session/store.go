package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// TokenStore persists the access token between runs. The file holds a single
// fixed key so the token survives restarts the way browser storage would.
type TokenStore struct {
	path string
}

type tokenFile struct {
	AccessToken string `toml:"access_token"`
}

// NewTokenStore returns a store backed by the given file path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Load reads the persisted token. A missing or unreadable file yields an empty
// token; only a present, non-empty value counts as a stored session.
func (s *TokenStore) Load() string {
	if s == nil || strings.TrimSpace(s.path) == "" {
		return ""
	}
	bytes, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	var tf tokenFile
	if err := toml.Unmarshal(bytes, &tf); err != nil {
		return ""
	}
	return strings.TrimSpace(tf.AccessToken)
}

// Save writes the token, creating the data directory as needed. The file is
// user-only readable since it holds a credential.
func (s *TokenStore) Save(token string) error {
	if s == nil || strings.TrimSpace(s.path) == "" {
		return errors.New("token store has no path")
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	bytes, err := toml.Marshal(tokenFile{AccessToken: token})
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.WriteFile(s.path, bytes, 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Clear removes the persisted token. A missing file is not an error.
func (s *TokenStore) Clear() error {
	if s == nil || strings.TrimSpace(s.path) == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}
