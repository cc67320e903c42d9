package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/atelierhq/atelier/internal/domain/team"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/types"
)

// InMemoryTeamStore implements team.Repository
type InMemoryTeamStore struct {
	*InMemoryStore[*team.Team]

	mu      sync.RWMutex
	members map[string]*team.Member
}

// NewInMemoryTeamStore creates a new in-memory team store
func NewInMemoryTeamStore() *InMemoryTeamStore {
	return &InMemoryTeamStore{
		InMemoryStore: NewInMemoryStore[*team.Team](),
		members:       make(map[string]*team.Member),
	}
}

func (s *InMemoryTeamStore) Create(ctx context.Context, t *team.Team) error {
	if t == nil {
		return fmt.Errorf("team cannot be nil")
	}
	return s.InMemoryStore.Create(ctx, t.ID, t)
}

func (s *InMemoryTeamStore) Get(ctx context.Context, id string) (*team.Team, error) {
	t, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("team not found").
			WithReportableDetails(map[string]any{"team_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return t, nil
}

func (s *InMemoryTeamStore) AddMember(ctx context.Context, member *team.Member) error {
	if member == nil {
		return fmt.Errorf("member cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.members[member.ID]; exists {
		return ierr.NewError("member already exists").
			WithReportableDetails(map[string]any{"member_id": member.ID}).
			Mark(ierr.ErrAlreadyExists)
	}
	s.members[member.ID] = member
	return nil
}

func (s *InMemoryTeamStore) ListMembers(ctx context.Context, teamID string) ([]*team.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*team.Member
	for _, m := range s.members {
		if m.TeamID == teamID && m.Status == types.StatusActive {
			result = append(result, m)
		}
	}
	return result, nil
}

func (s *InMemoryTeamStore) CountBilledSeats(ctx context.Context, teamID string) (int64, error) {
	members, err := s.ListMembers(ctx, teamID)
	if err != nil {
		return 0, err
	}

	var count int64
	for _, m := range members {
		if m.Role.IsBilled() {
			count++
		}
	}
	return count, nil
}

// Clear removes all teams and members
func (s *InMemoryTeamStore) Clear() {
	s.InMemoryStore.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = make(map[string]*team.Member)
}
