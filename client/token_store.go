package client

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goliatone/go-errors"
)

// TokenStore persists the bearer token between runs
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	return m.Save("")
}

// FileTokenStore keeps the token in a file readable only by its owner
type FileTokenStore struct {
	path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// DefaultTokenPath is ~/.config/taskboard/token or the OS equivalent
func DefaultTokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "taskboard", "token"), nil
}

func (f *FileTokenStore) Load() (string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read token file")
	}
	return strings.TrimSpace(string(raw)), nil
}

func (f *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create token directory")
	}
	if err := os.WriteFile(f.path, []byte(token), 0o600); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to write token file")
	}
	// WriteFile keeps the mode of an existing file
	return os.Chmod(f.path, 0o600)
}

func (f *FileTokenStore) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, errors.CategoryInternal, "failed to remove token file")
	}
	return nil
}
