package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxBytes is the default proof image size ceiling.
const MaxBytes int64 = 5 * 1024 * 1024

var (
	// ErrNotImage is returned when the uploaded file is not an image.
	ErrNotImage = errors.New("uploaded file must be an image")
	// ErrTooLarge is returned when the uploaded file exceeds the size limit.
	ErrTooLarge = errors.New("uploaded file exceeds the size limit")
)

// StoredFile is the metadata the portal keeps about a stored proof image.
type StoredFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
}

// Store persists proof images under generated names and resolves them back
// to a fetchable URL.
type Store interface {
	Save(ctx context.Context, filename, contentType string, body io.Reader, size int64) error
	URL(ctx context.Context, filename string) (string, error)
}

// Service validates incoming proof images and hands them to a backend.
type Service struct {
	store    Store
	maxBytes int64
	logger   *zap.Logger
}

// NewService creates an upload service. A non-positive maxBytes falls back
// to the 5 MiB default.
func NewService(store Store, maxBytes int64, logger *zap.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = MaxBytes
	}
	return &Service{store: store, maxBytes: maxBytes, logger: logger}
}

// Accept validates one proof image and stores it under a generated
// collision-resistant name. The MIME type must start with image/ and the
// size must not exceed the ceiling.
func (s *Service) Accept(ctx context.Context, originalName, contentType string, size int64, body io.Reader) (*StoredFile, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, ErrNotImage
	}
	if size > s.maxBytes {
		return nil, ErrTooLarge
	}

	filename := generateFilename(originalName)
	if err := s.store.Save(ctx, filename, contentType, body, size); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	s.logger.Info("stored proof image",
		zap.String("filename", filename),
		zap.String("original_name", originalName),
		zap.Int64("size", size))

	return &StoredFile{Filename: filename, OriginalName: originalName, Size: size}, nil
}

// AcceptMultipart validates and stores the image carried by a multipart
// file header.
func (s *Service) AcceptMultipart(ctx context.Context, header *multipart.FileHeader) (*StoredFile, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	return s.Accept(ctx, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
}

// URL resolves a stored filename to the URL clients fetch it from.
func (s *Service) URL(ctx context.Context, filename string) (string, error) {
	return s.store.URL(ctx, filename)
}

func generateFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return uuid.New().String() + ext
}
