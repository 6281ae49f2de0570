package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/voyantlabs/voyant/internal/config"
)

// LocalStore writes artifacts under a base directory. When BaseURL is set
// the returned addresses are rooted there; otherwise they are file:// URIs.
type LocalStore struct {
	baseDir string
	baseURL string
}

// NewLocalStore validates the base directory, creating it if needed.
func NewLocalStore(cfg config.StorageConfig) (*LocalStore, error) {
	baseDir := strings.TrimSpace(cfg.BaseDir)
	if baseDir == "" {
		return nil, errors.New("storage: base directory is required")
	}

	info, err := os.Stat(baseDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(baseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("storage: create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("storage: stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("storage: %s is not a directory", baseDir)
	}

	return &LocalStore{
		baseDir: baseDir,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Upload writes the artifact and returns its address. The name may contain
// forward slashes for grouping; anything escaping the base directory is
// rejected.
func (s *LocalStore) Upload(_ context.Context, name string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("storage: artifact name is required")
	}

	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(name))
	cleanBase := filepath.Clean(s.baseDir)
	if !strings.HasPrefix(filepath.Clean(fullPath), cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("storage: name %q escapes base directory", name)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("storage: create parent directories: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o600); err != nil {
		return "", fmt.Errorf("storage: write artifact: %w", err)
	}

	if s.baseURL != "" {
		return s.baseURL + "/" + name, nil
	}
	abs, err := filepath.Abs(fullPath)
	if err != nil {
		abs = fullPath
	}
	return "file://" + filepath.ToSlash(abs), nil
}
