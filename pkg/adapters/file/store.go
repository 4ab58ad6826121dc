package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/strata/pkg/domain"
)

// Store implements ports.AssetStore using the local filesystem.
// Identifiers are slash-separated paths relative to BasePath.
type Store struct {
	BasePath string
}

// New creates a new Store rooted at basePath.
// If basePath is empty, it defaults to the working directory.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = "."
	}
	return &Store{BasePath: basePath}
}

func (s *Store) resolve(identifier string) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("%w: identifier cannot be empty", domain.ErrInvalidIdentifier)
	}
	clean := filepath.Clean(filepath.FromSlash(identifier))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s escapes the store root", domain.ErrInvalidIdentifier, identifier)
	}
	return filepath.Join(s.BasePath, clean), nil
}

// Write persists data atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Write(ctx context.Context, identifier string, data []byte) error {
	destPath, err := s.resolve(identifier)
	if err != nil {
		return err
	}

	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure layer directory: %w", err)
	}

	// Same directory as the destination so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(destPath)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing layer file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	return nil
}

// Read retrieves the bytes stored under identifier.
func (s *Store) Read(ctx context.Context, identifier string) ([]byte, error) {
	filePath, err := s.resolve(identifier)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrAssetNotFound, identifier)
		}
		return nil, fmt.Errorf("failed to read layer file: %w", err)
	}
	return data, nil
}

// Delete removes the file.
func (s *Store) Delete(ctx context.Context, identifier string) error {
	filePath, err := s.resolve(identifier)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete layer file: %w", err)
	}
	return nil
}

// List returns every file below BasePath as a slash-separated identifier.
// Hidden files and directories are skipped.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := filepath.WalkDir(s.BasePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if path != s.BasePath && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.BasePath, path)
		if err != nil {
			return err
		}
		ids = append(ids, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list layers: %w", err)
	}
	slices.Sort(ids)
	return ids, nil
}
