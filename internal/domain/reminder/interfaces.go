package reminder

import (
	"context"
	"time"

	"salescrm/internal/domain/lead"
	"salescrm/internal/pkg/jwt"
)

// DueFinder is the part of the lead repository the pending poll needs.
type DueFinder interface {
	FindDueWithin(ctx context.Context, from, to time.Time, ownerID *int64) ([]lead.Lead, error)
}

// Notifier delivers a reminder over one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}
