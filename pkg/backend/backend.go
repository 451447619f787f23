// Package backend defines the downloader adapter contract and its
// implementations. Each adapter turns a canonical Instagram post into a
// direct media URL, converting every transport or service failure into a
// classified error at the boundary.
package backend

import (
	"context"

	"github.com/yasarefe-official/igxdown/pkg/instaurl"
)

// MediaRef points at resolvable video bytes
type MediaRef struct {
	// URL is a direct media URL
	URL string
	// ContentLength is the size in bytes when the backend reports it,
	// 0 otherwise
	ContentLength int64
}

// Backend resolves an Instagram post to a direct media URL. The
// orchestration layer treats every implementation through this single
// contract and never inspects backend-specific detail.
type Backend interface {
	Name() string
	Resolve(ctx context.Context, post *instaurl.Post) (*MediaRef, error)
}
