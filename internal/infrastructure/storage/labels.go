package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidPath is returned for paths that escape the storage root
	ErrInvalidPath = errors.New("invalid storage path")
	// ErrFileNotFound is returned when a stored label file does not exist
	ErrFileNotFound = errors.New("label file not found")
)

// LabelStoreConfig contains configuration for the label file store
type LabelStoreConfig struct {
	// BasePath is the root directory for prepared labels
	// Default: data/labels
	BasePath string
	// WorkspaceDir holds per-record scratch directories
	// Default: <os temp dir>/labelbridge
	WorkspaceDir string
	// Logger for operations
	Logger *zap.Logger
}

// LabelStore stores prepared label PDFs on the local file system.
// Paths handed out are relative to the base path.
type LabelStore struct {
	basePath     string
	workspaceDir string
	logger       *zap.Logger
}

// NewLabelStore creates the store and its directories
func NewLabelStore(cfg LabelStoreConfig) (*LabelStore, error) {
	if cfg.BasePath == "" {
		cfg.BasePath = filepath.Join("data", "labels")
	}
	if cfg.WorkspaceDir == "" {
		cfg.WorkspaceDir = filepath.Join(os.TempDir(), "labelbridge")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	for _, dir := range []string{cfg.BasePath, cfg.WorkspaceDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}

	return &LabelStore{
		basePath:     cfg.BasePath,
		workspaceDir: cfg.WorkspaceDir,
		logger:       cfg.Logger.Named("storage"),
	}, nil
}

// StoreLabel writes a label PDF and returns its relative path.
// Path structure: {year}/{month}/{label_id}.pdf
func (s *LabelStore) StoreLabel(ctx context.Context, labelID uuid.UUID, createdAt time.Time, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("store cancelled: %w", err)
	}
	if labelID == uuid.Nil {
		return "", errors.New("label ID is required")
	}
	if len(data) == 0 {
		return "", errors.New("label data is empty")
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	relativePath := filepath.Join(
		fmt.Sprintf("%d", createdAt.Year()),
		fmt.Sprintf("%02d", createdAt.Month()),
		labelID.String()+".pdf",
	)
	fullPath := filepath.Join(s.basePath, relativePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create label directory: %w", err)
	}

	// Write through a temp file so a reader never sees a partial label
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".label-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create label file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write label file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write label file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to move label file into place: %w", err)
	}

	s.logger.Debug("Label stored",
		zap.String("labelId", labelID.String()),
		zap.String("path", relativePath),
		zap.Int("size", len(data)))

	return filepath.ToSlash(relativePath), nil
}

// Resolve returns the absolute file path of a stored label
func (s *LabelStore) Resolve(path string) (string, error) {
	cleanPath := filepath.Clean(filepath.FromSlash(path))
	if path == "" || filepath.IsAbs(cleanPath) || containsDotDot(path) {
		s.logger.Warn("Blocked potentially malicious path", zap.String("path", path))
		return "", ErrInvalidPath
	}

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(s.basePath, cleanPath))
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		s.logger.Warn("Path escape attempt blocked",
			zap.String("path", path),
			zap.String("absPath", absPath))
		return "", ErrInvalidPath
	}
	return absPath, nil
}

// Exists reports whether a stored label file is present
func (s *LabelStore) Exists(path string) bool {
	absPath, err := s.Resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(absPath)
	return err == nil && info.Mode().IsRegular()
}

// Open opens a stored label for reading
func (s *LabelStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("open cancelled: %w", err)
	}
	absPath, err := s.Resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(absPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	return f, nil
}

// Delete removes a stored label. A missing file is not an error.
func (s *LabelStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete cancelled: %w", err)
	}
	absPath, err := s.Resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(absPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete label file: %w", err)
	}
	return nil
}

// CleanupOlderThan removes label files older than age and returns how many were removed
func (s *LabelStore) CleanupOlderThan(ctx context.Context, age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)
	deleted := 0

	err := filepath.WalkDir(s.basePath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".pdf" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err == nil {
				deleted++
				s.logger.Debug("Deleted old label", zap.String("path", path))
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return deleted, fmt.Errorf("cleanup walk failed: %w", err)
	}

	s.logger.Info("Label cleanup completed",
		zap.Int("deleted", deleted),
		zap.Duration("age", age))
	return deleted, nil
}

// Workspace creates a scratch directory for one record.
// The returned cleanup removes it and everything inside.
func (s *LabelStore) Workspace(recordID uuid.UUID) (string, func(), error) {
	dir, err := os.MkdirTemp(s.workspaceDir, recordID.String()+"-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("Failed to remove workspace", zap.String("dir", dir), zap.Error(err))
		}
	}
	return dir, cleanup, nil
}

// containsDotDot checks if a path contains ".." components
func containsDotDot(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}
