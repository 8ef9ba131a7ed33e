package imagestore

import (
	"context"
	"io"
)

// ImageStore holds item image payloads keyed by caller-chosen names
// (barcode-derived filenames). Keys are stable across export and import so
// that packages reference images by the same name the store uses.
type ImageStore interface {
	Save(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
