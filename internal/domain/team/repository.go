package team

import (
	"context"
)

// Repository defines the interface for team and membership persistence
type Repository interface {
	Get(ctx context.Context, id string) (*Team, error)
	Create(ctx context.Context, team *Team) error
	ListMembers(ctx context.Context, teamID string) ([]*Member, error)
	AddMember(ctx context.Context, member *Member) error
	// CountBilledSeats counts the team's non-viewer members. Seat counts are
	// never stored; callers must ask immediately before any operation that
	// depends on them.
	CountBilledSeats(ctx context.Context, teamID string) (int64, error)
}
