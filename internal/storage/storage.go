// Package storage persists screenshot artifacts and hands back addressable
// URLs for the crawl result.
package storage

import "context"

// Uploader writes a named artifact and returns the URL it is reachable at.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}
