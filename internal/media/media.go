// Package media abstracts the object store holding uploaded images.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotManaged is returned by Delete when the URL does not address an
// object in this store, e.g. an externally hosted image. Callers replacing
// an image treat it as "nothing to clean up" rather than a failure.
var ErrNotManaged = errors.New("media: object not managed by this store")

// Store saves and removes uploaded images. Upload returns the public URL of
// the stored object; Delete accepts that URL back.
type Store interface {
	Upload(ctx context.Context, name string, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// Image is a decoded inline upload.
type Image struct {
	ContentType string
	Data        []byte
}

// IsDataURI reports whether s looks like an inline base64 data URI
// ("data:image/png;base64,...."). Anything else is treated as an
// already-hosted URL and stored as-is.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURI parses an inline base64 image payload.
func DecodeDataURI(s string) (*Image, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, fmt.Errorf("media: not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("media: malformed data URI")
	}
	contentType, enc, ok := strings.Cut(meta, ";")
	if !ok || enc != "base64" {
		return nil, fmt.Errorf("media: only base64 data URIs are supported")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("media: decoding data URI: %w", err)
	}
	return &Image{ContentType: contentType, Data: data}, nil
}

// ExtensionFor maps an image content type to a file extension.
func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
