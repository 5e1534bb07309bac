package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileStorage defines the interface for uploaded document storage
type FileStorage interface {
	// SaveUpload stores an uploaded file under the base directory using
	// the document ID as a collision-free prefix and returns the path.
	SaveUpload(documentID, filename string, content []byte) (string, error)

	// Read returns the content of a previously stored file
	Read(path string) ([]byte, error)

	// Delete removes a stored file; missing files are not an error
	Delete(path string) error
}

// LocalFileStorage implements FileStorage on the local filesystem
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a LocalFileStorage rooted at baseDir
func NewLocalFileStorage(baseDir string, logger *zap.Logger) (*LocalFileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}, nil
}

// SaveUpload stores an uploaded file and returns its path
func (s *LocalFileStorage) SaveUpload(documentID, filename string, content []byte) (string, error) {
	// The original filename is untrusted; keep only its base name.
	safeName := filepath.Base(filepath.Clean(filename))
	if safeName == "." || safeName == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename: %s", filename)
	}

	path := filepath.Join(s.baseDir, documentID+"_"+safeName)
	if err := s.validatePath(path); err != nil {
		return "", err
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		s.logger.Error("Failed to write uploaded file",
			zap.String("path", path),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Uploaded file saved",
		zap.String("document_id", documentID),
		zap.String("path", path),
		zap.Int("size", len(content)))

	return path, nil
}

// Read returns the content of a stored file
func (s *LocalFileStorage) Read(path string) ([]byte, error) {
	if err := s.validatePath(path); err != nil {
		return nil, err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// Delete removes a stored file
func (s *LocalFileStorage) Delete(path string) error {
	if err := s.validatePath(path); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// validatePath checks that the path stays within the base directory
func (s *LocalFileStorage) validatePath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes storage directory: %s", path)
	}
	return nil
}
