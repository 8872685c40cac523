// Package storage keeps uploaded pictures on local disk or in an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("picture not found")
	ErrUnsupportedType = errors.New("unsupported picture type")
	ErrTooLarge        = errors.New("picture too large")
)

// Store persists opaque objects by name.
type Store interface {
	Save(ctx context.Context, name string, data []byte, contentType string) error
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Picture is a validated upload ready to be stored.
type Picture struct {
	Name        string
	ContentType string
	Data        []byte
}

// NewPicture sniffs the content type and assigns a unique name under prefix.
func NewPicture(prefix string, data []byte, maxBytes int64) (Picture, error) {
	if len(data) == 0 {
		return Picture{}, fmt.Errorf("%w: empty upload", ErrUnsupportedType)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Picture{}, ErrTooLarge
	}
	ct := http.DetectContentType(data)
	ext, ok := allowedTypes[ct]
	if !ok {
		return Picture{}, fmt.Errorf("%w: %s", ErrUnsupportedType, ct)
	}
	return Picture{
		Name:        prefix + "/" + uuid.NewString() + ext,
		ContentType: ct,
		Data:        data,
	}, nil
}

// Put stores p in s.
func Put(ctx context.Context, s Store, p Picture) error {
	return s.Save(ctx, p.Name, p.Data, p.ContentType)
}
