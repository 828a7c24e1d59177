package lead

import "context"

// OwnerDirectory answers whether a user may own leads.
type OwnerDirectory interface {
	IsAssignableOwner(ctx context.Context, userID int64) (bool, error)
}

// ExtraNormalizer validates extension values against the active field definitions.
type ExtraNormalizer interface {
	Normalize(ctx context.Context, extra Extra) (Extra, error)
}
