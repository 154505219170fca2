// Package blob abstracts binary object storage for submission evidence
// photos.
package blob

import "context"

// Store is the blob-store contract consumed by the submission workflow.
type Store interface {
	// Upload stores data under path and returns a URL for later display.
	Upload(ctx context.Context, data []byte, path, contentType string) (string, error)
	// Delete removes the object at path. Missing objects are not an error.
	Delete(ctx context.Context, path string) error
}
