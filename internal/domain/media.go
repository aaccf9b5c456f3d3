package domain

import "context"

// MediaRepository stores exercise demo videos and returns their public URL.
type MediaRepository interface {
	Upload(ctx context.Context, file []byte, filename string, contentType string) (string, error)
}
