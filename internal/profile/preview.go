package profile

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// PreviewStore turns a locally picked image into something displayable
// before it is uploaded.
type PreviewStore interface {
	Create(name string, data []byte) (string, error)
	Release(ref string) error
}

// DataURLPreviews renders previews inline as data URLs. Release is a no-op.
type DataURLPreviews struct{}

func (DataURLPreviews) Create(_ string, data []byte) (string, error) {
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (DataURLPreviews) Release(string) error { return nil }

// TempPreviews writes each preview to a temp file and hands out its file://
// URL. Releasing a preview removes the file.
type TempPreviews struct {
	dir string
}

// NewTempPreviews stores previews under dir, or the system temp dir when
// dir is empty.
func NewTempPreviews(dir string) *TempPreviews {
	return &TempPreviews{dir: dir}
}

func (p *TempPreviews) Create(name string, data []byte) (string, error) {
	if p.dir != "" {
		if err := os.MkdirAll(p.dir, 0o700); err != nil {
			return "", fmt.Errorf("create preview dir: %w", err)
		}
	}
	f, err := os.CreateTemp(p.dir, "preview-*"+filepath.Ext(name))
	if err != nil {
		return "", fmt.Errorf("create preview: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write preview: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write preview: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(f.Name())}).String(), nil
}

func (p *TempPreviews) Release(ref string) error {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "file" {
		return fmt.Errorf("not a preview file: %q", ref)
	}
	if err := os.Remove(filepath.FromSlash(u.Path)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release preview: %w", err)
	}
	return nil
}

func imageContentType(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return http.DetectContentType(data)
}
