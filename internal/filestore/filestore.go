// Package filestore persists export artifacts under a base URL.
//
// Any scheme supported by github.com/viant/afs works: plain paths and
// file:// for local disks, mem:// in tests, s3:// or gs:// in production.
// Artifact names are content hashes, so WriteFile skips objects that
// already exist and re-running an export never rewrites them.
package filestore

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"ballotforge/internal/config"
)

// Writer stores artifacts and returns their URL.
type Writer interface {
	WriteFile(ctx context.Context, name string, data []byte) (string, error)
}

// Store writes through an afs service.
type Store struct {
	fs      afs.Service
	baseURL string
}

var _ Writer = (*Store)(nil)

// New returns a store rooted at baseURL.
func New(baseURL string) *Store {
	return &Store{fs: afs.New(), baseURL: normalizeBase(baseURL)}
}

// NewFromConfig roots the store at paths.artifacts_url.
func NewFromConfig(cfg *config.Config) *Store {
	return New(cfg.Paths.ArtifactsURL)
}

func normalizeBase(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base != "" && !strings.Contains(base, "://") {
		return "file://" + base
	}
	return base
}

// BaseURL reports where artifacts are written.
func (s *Store) BaseURL() string {
	return s.baseURL
}

// WriteFile uploads data as name unless an object already exists there.
func (s *Store) WriteFile(ctx context.Context, name string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("artifact name cannot be empty")
	}
	target := url.Join(s.baseURL, name)
	exists, err := s.fs.Exists(ctx, target)
	if err != nil {
		return "", fmt.Errorf("check artifact %s: %w", target, err)
	}
	if exists {
		return target, nil
	}
	if err := s.fs.Upload(ctx, target, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("upload artifact %s: %w", target, err)
	}
	return target, nil
}

// ReadFile downloads an artifact by URL.
func (s *Store) ReadFile(ctx context.Context, artifactURL string) ([]byte, error) {
	data, err := s.fs.DownloadWithURL(ctx, artifactURL)
	if err != nil {
		return nil, fmt.Errorf("download artifact %s: %w", artifactURL, err)
	}
	return data, nil
}
