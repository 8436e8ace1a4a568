package storage

import (
	"context"
	"fmt"
	"strings"
)

// ObjectStore is the seam between the ingestion pipeline and whatever
// blob backend holds the bytes. Any key-addressed store with stable
// public URLs satisfies it.
type ObjectStore interface {
	// Upload writes data under key and returns its public URL. Keys are
	// collision-resistant (derived from image ids), so an existing key is
	// never silently overwritten in practice.
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// PublicURL is pure: no network call, deterministic per configuration.
	PublicURL(key string) string

	// Remove is idempotent; removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// ObjectKey derives the storage key for an image id.
func ObjectKey(imageID, format string) string {
	ext := "jpg"
	if format == "png" {
		ext = "png"
	}
	return fmt.Sprintf("%s.%s", imageID, ext)
}

func buildPublicURL(base, bucket, key string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, key)
}
