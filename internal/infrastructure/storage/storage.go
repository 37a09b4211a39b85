// Package storage writes rendered certificates and reports to a file
// system directory or an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"github.com/gcci/certgen/internal/application/batch"
	infraconfig "github.com/gcci/certgen/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Content types for stored objects
const (
	ContentTypePDF = "application/pdf"
	ContentTypeCSV = "text/csv"
)

// ErrEmptyName is returned when an object name is empty
var ErrEmptyName = errors.New("object name is required")

// ObjectWriter stores a named object and returns where it was written.
type ObjectWriter interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// New opens the configured backend. For the file system dir is the target
// directory; for S3 the directory's base name is appended to the key prefix.
func New(ctx context.Context, cfg *infraconfig.StorageConfig, dir string, logger *zap.Logger) (ObjectWriter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Backend {
	case "", "filesystem":
		return NewFileSystem(dir, logger)
	case "s3":
		s, err := NewS3(ctx, &cfg.S3, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		sub := path.Base(filepath.ToSlash(dir))
		if sub == "." || sub == "/" {
			sub = ""
		}
		return s.WithKeyPrefix(path.Join(s.prefix, sub)), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// ArtifactStore persists rendered certificates through an ObjectWriter.
type ArtifactStore struct {
	writer ObjectWriter
}

// NewArtifactStore creates an artifact store.
func NewArtifactStore(w ObjectWriter) *ArtifactStore {
	return &ArtifactStore{writer: w}
}

// Save writes the artifact bytes, exactly as rendered, under its file name.
func (s *ArtifactStore) Save(ctx context.Context, a *batch.Artifact) (string, error) {
	return s.writer.Put(ctx, a.FileName(), a.Data, ContentTypePDF)
}

var _ batch.ArtifactStore = (*ArtifactStore)(nil)
