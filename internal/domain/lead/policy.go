package lead

import (
	"context"

	"salescrm/internal/domain/user"
)

type Action int

const (
	ActionRead Action = iota
	ActionWrite
	ActionClaim
	ActionAdmin
)

// Authorize is the single permission check applied before every lead read or mutation.
func Authorize(actor user.Actor, l *Lead, action Action) error {
	if actor.IsAdmin {
		return nil
	}

	switch action {
	case ActionRead:
		if l.InPool() || l.OwnedBy(actor.ID) {
			return nil
		}
	case ActionWrite:
		if l.OwnedBy(actor.ID) {
			return nil
		}
	case ActionClaim:
		if l.InPool() {
			return nil
		}
		return ErrNotAvailable
	}
	return ErrForbidden
}

// DefaultOwner is where a lead goes when its creator does not pick an owner.
// Reps keep what they add; admins put it in the pool.
func DefaultOwner(actor user.Actor) *int64 {
	if actor.IsAdmin {
		return nil
	}
	id := actor.ID
	return &id
}

// resolveOwner checks an owner requested by actor. nil means the pool.
func resolveOwner(ctx context.Context, owners OwnerDirectory, actor user.Actor, requested *int64) (*int64, error) {
	if requested == nil {
		return nil, nil
	}
	id := *requested

	if !actor.IsAdmin {
		if id != actor.ID {
			return nil, ErrOwnerNotAllowed
		}
		return &id, nil
	}

	ok, err := owners.IsAssignableOwner(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOwner
	}
	return &id, nil
}
