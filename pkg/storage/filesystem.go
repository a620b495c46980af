package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage persists uploaded files on disk under a base directory.
// Files are stored as <baseDir>/<folder>/<uuid><ext> and addressed by
// the public path <publicBase>/<folder>/<uuid><ext>.
type LocalStorage struct {
	baseDir     string
	publicBase  string
	allowedExts map[string]struct{}
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir, publicBase string, allowedExts []string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if publicBase == "" {
		publicBase = "/uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	exts := make(map[string]struct{}, len(allowedExts))
	for _, e := range allowedExts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = struct{}{}
	}

	return &LocalStorage{baseDir: baseDir, publicBase: publicBase, allowedExts: exts}, nil
}

// Save stores the stream under folder using a generated name and returns the
// public path of the stored file. A nil result with error signals rejection
// (disallowed extension or I/O failure).
func (s *LocalStorage) Save(folder, originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !s.extAllowed(ext) {
		return "", fmt.Errorf("file extension %q not allowed", ext)
	}

	name := uuid.New().String() + ext
	dir := filepath.Join(s.baseDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}

	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("write upload stream: %w", err)
	}

	return path.Join(s.publicBase, folder, name), nil
}

// Delete removes a stored file by its public path if present.
func (s *LocalStorage) Delete(publicPath string) error {
	rel := strings.TrimPrefix(publicPath, s.publicBase)
	target := filepath.Join(s.baseDir, filepath.FromSlash(rel))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// Dir exposes the base directory (used to mount the static file route).
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

// PublicBase exposes the public path prefix uploads are served from.
func (s *LocalStorage) PublicBase() string {
	return s.publicBase
}

func (s *LocalStorage) extAllowed(ext string) bool {
	if ext == "" {
		return false
	}
	if len(s.allowedExts) == 0 {
		return true
	}
	_, ok := s.allowedExts[ext]
	return ok
}
