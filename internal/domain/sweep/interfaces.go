package sweep

import (
	"context"
	"time"

	"salescrm/internal/domain/lead"
)

// Releaser finds and releases stale unreachable leads.
type Releaser interface {
	FindRecyclable(ctx context.Context, cutoff time.Time) ([]int64, error)
	ReleaseIfRecyclable(ctx context.Context, id int64, cutoff time.Time) (bool, error)
}

// DueLister lists leads whose follow-up falls in a time slice.
type DueLister interface {
	FindDueBetween(ctx context.Context, from, to time.Time, ownerID *int64, ownedOnly bool) ([]lead.Lead, error)
}

// Purger drops expired reminder markers.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
