package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var ErrUnsupportedImage = errors.New("unsupported image type")

// logoTypes maps accepted logo content types to their file extension.
var logoTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// ObjectStore holds team logos.
type ObjectStore interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// LogoKey returns the object key for a team logo of the given content type.
// revision keeps successive uploads from colliding in CDN caches.
func LogoKey(teamID int, contentType, revision string) (string, error) {
	ext, ok := logoTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, contentType)
	}
	return path.Join("teams", fmt.Sprint(teamID), "logo-"+revision+ext), nil
}

// JoinURL joins a public base URL and an object key with exactly one slash.
func JoinURL(base, key string) string {
	if base == "" || key == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
