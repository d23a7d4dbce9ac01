package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/quicktech-sms/portal/config"
)

// ErrObjectNotFound is returned by Get for a missing key.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// NewBackend builds the avatar backend named by cfg.AvatarBackend.
func NewBackend(ctx context.Context, cfg config.AuthorityConfig) (ObjectStorage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.AvatarBackend)) {
	case "", "memory":
		return NewMemoryStorage("avatars"), nil
	case "minio":
		return NewMinioClient(cfg.Minio)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown avatar backend %q", cfg.AvatarBackend)
	}
}
