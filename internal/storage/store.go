package storage

import (
	"context"
	"errors"
	"path"
	"strings"

	"parkshare/internal/models"

	"github.com/google/uuid"
)

// ErrInvalidKey is returned for keys that escape the storage root
var ErrInvalidKey = errors.New("invalid storage key")

// ImageStore persists uploaded image bytes under opaque keys
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	// URL returns the public address of key
	URL(key string) string
}

// NewKey builds uploads/<kind>/<uuid><ext> for an image of the decoded
// format. The filename's extension is kept only when it names that format,
// so the key never claims a type the bytes are not.
func NewKey(kind models.ImageKind, filename, format string) string {
	ext := strings.ToLower(path.Ext(filename))
	if !matchesFormat(ext, format) {
		ext = ExtensionFor(format)
	}
	return kind.Namespace() + "/" + uuid.New().String() + ext
}

var formatExtensions = map[string][]string{
	"jpeg": {".jpg", ".jpeg"},
	"png":  {".png"},
	"gif":  {".gif"},
	"webp": {".webp"},
}

func matchesFormat(ext, format string) bool {
	for _, candidate := range formatExtensions[format] {
		if ext == candidate {
			return true
		}
	}
	return false
}

// ExtensionFor maps a decoded image format to a file extension
func ExtensionFor(format string) string {
	switch format {
	case "jpeg":
		return ".jpg"
	case "png", "gif", "webp":
		return "." + format
	}
	return ""
}

// ContentTypeFor maps a decoded image format to its MIME type
func ContentTypeFor(format string) string {
	switch format {
	case "jpeg", "png", "gif", "webp":
		return "image/" + format
	}
	return "application/octet-stream"
}

func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
