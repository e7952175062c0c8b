// Package scanner discovers candidate capture files per platform.
//
// Each scanner walks one platform's source layout and reports RawItems with
// whatever timestamp and title information that layout encodes. Scan failures
// are wrapped as scan errors so a broken platform never aborts the others.
package scanner

import (
	"context"

	"gamesync/internal/media"
)

// Scanner discovers the capture files one platform currently holds.
type Scanner interface {
	// Platform identifies which capture source this scanner reads.
	Platform() media.Platform
	// Scan enumerates candidate items. An absent client install yields an
	// empty result with a platform-missing error; unreadable layouts
	// return a scan error alongside whatever was discovered before the
	// failure.
	Scan(ctx context.Context) ([]media.RawItem, error)
}
