package subscription

import (
	"context"
)

// Repository defines the interface for subscription persistence.
// All methods are scoped to the transaction carried by the context when one
// is open.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, id string) (*Subscription, error)
	Update(ctx context.Context, sub *Subscription) error
	FindActiveByTeamID(ctx context.Context, teamID string) (*Subscription, error)
	// FindActiveByTeamIDForUpdate takes a row-level lock on the active
	// subscription for the duration of the surrounding transaction, so
	// concurrent upgrades for the same team serialize instead of racing the
	// at-most-one-active invariant.
	FindActiveByTeamIDForUpdate(ctx context.Context, teamID string) (*Subscription, error)
	FindActiveByUserID(ctx context.Context, userID string) (*Subscription, error)
}
