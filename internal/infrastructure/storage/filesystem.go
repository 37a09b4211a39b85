package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileSystem writes objects into a single directory.
type FileSystem struct {
	dir    string
	logger *zap.Logger
}

// NewFileSystem creates the directory if needed.
func NewFileSystem(dir string, logger *zap.Logger) (*FileSystem, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSystem{dir: dir, logger: logger}, nil
}

// Put writes data to dir/name. The file is written to a temporary name
// first and renamed, so a failed write never leaves a partial object.
func (f *FileSystem) Put(ctx context.Context, name string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" {
		return "", ErrEmptyName
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid object name %q", name)
	}

	tmp, err := os.CreateTemp(f.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close file: %w", err)
	}

	path := filepath.Join(f.dir, name)
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	f.logger.Debug("Object stored", zap.String("path", path), zap.Int("size", len(data)))
	return path, nil
}

var _ ObjectWriter = (*FileSystem)(nil)
