package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
)

// AvatarRoute is the path prefix under which avatars are served.
const AvatarRoute = "/avatars/"

// Avatars stores profile pictures under random keys and hands out public
// URLs for them.
type Avatars struct {
	backend   ObjectStorage
	publicURL string
}

// NewAvatars serves objects of backend under publicURL + AvatarRoute.
func NewAvatars(backend ObjectStorage, publicURL string) *Avatars {
	return &Avatars{backend: backend, publicURL: strings.TrimRight(publicURL, "/")}
}

// Save uploads data and returns its public URL.
func (a *Avatars) Save(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	key := uuid.NewString() + ext
	if err := a.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}
	return a.publicURL + AvatarRoute + key, nil
}

// Open returns the avatar stored under key and its content type.
func (a *Avatars) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if key == "" || strings.Contains(key, "/") {
		return nil, "", ErrObjectNotFound
	}
	rc, err := a.backend.Get(ctx, key)
	if err != nil {
		return nil, "", err
	}
	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return rc, contentType, nil
}

// Remove deletes the avatar behind url. URLs this store did not issue are
// ignored.
func (a *Avatars) Remove(ctx context.Context, url string) error {
	prefix := a.publicURL + AvatarRoute
	if !strings.HasPrefix(url, prefix) {
		return nil
	}
	return a.backend.Delete(ctx, strings.TrimPrefix(url, prefix))
}

// EnsureBucket prepares the backend.
func (a *Avatars) EnsureBucket(ctx context.Context) error {
	return a.backend.EnsureBucket(ctx)
}
