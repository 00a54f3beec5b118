package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrPhotoTooLarge  = errors.New("photo exceeds maximum size")
	ErrPhotoBadFormat = errors.New("unsupported photo format")
	errPhotoBadName   = errors.New("invalid photo filename")
	allowedPhotoExts  = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
)

// PhotoService stores profile photos on disk under random names
type PhotoService struct {
	dir     string
	maxSize int64
}

// NewPhotoService creates a photo service rooted at dir
func NewPhotoService(dir string, maxSize int64) (*PhotoService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photos directory: %w", err)
	}
	return &PhotoService{dir: dir, maxSize: maxSize}, nil
}

// Save stores an uploaded photo and returns the generated filename. The
// original filename is only consulted for its extension.
func (s *PhotoService) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedPhotoExts[ext] {
		return "", ErrPhotoBadFormat
	}

	filename := uuid.New().String() + ext
	path := filepath.Join(s.dir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create photo file: %w", err)
	}
	defer file.Close()

	// Read one byte past the cap to detect oversized uploads
	written, err := io.Copy(file, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write photo: %w", err)
	}
	if written > s.maxSize {
		os.Remove(path)
		return "", ErrPhotoTooLarge
	}

	return filename, nil
}

// Remove deletes a stored photo. Missing files are not an error.
func (s *PhotoService) Remove(filename string) error {
	if filename == "" {
		return nil
	}
	// The stored name is always flat; reject anything path-like
	if filename != filepath.Base(filename) || strings.Contains(filename, "..") {
		return errPhotoBadName
	}
	err := os.Remove(filepath.Join(s.dir, filename))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove photo: %w", err)
	}
	return nil
}
