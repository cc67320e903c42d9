package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/atelierhq/atelier/internal/domain/subscription"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/types"
)

// InMemorySubscriptionStore implements subscription.Repository
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
}

// NewInMemorySubscriptionStore creates a new in-memory subscription store
func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
	}
}

func subscriptionFilterFn(ctx context.Context, sub *subscription.Subscription) bool {
	if sub == nil {
		return false
	}
	if tenantID, ok := ctx.Value(types.CtxTenantID).(string); ok {
		if sub.TenantID != tenantID {
			return false
		}
	}
	return sub.Status != types.StatusDeleted
}

func subscriptionSortFn(i, j *subscription.Subscription) bool {
	if i == nil || j == nil {
		return false
	}
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return fmt.Errorf("subscription cannot be nil")
	}
	return s.InMemoryStore.Create(ctx, sub.ID, sub)
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("subscription not found").
			WithReportableDetails(map[string]any{"subscription_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

func (s *InMemorySubscriptionStore) Update(ctx context.Context, sub *subscription.Subscription) error {
	if sub == nil {
		return fmt.Errorf("subscription cannot be nil")
	}
	if err := s.InMemoryStore.Update(ctx, sub.ID, sub); err != nil {
		return ierr.NewError("subscription not found").
			WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemorySubscriptionStore) FindActiveByTeamID(ctx context.Context, teamID string) (*subscription.Subscription, error) {
	return s.findActive(ctx, func(sub *subscription.Subscription) bool {
		return sub.TeamID != nil && *sub.TeamID == teamID
	})
}

func (s *InMemorySubscriptionStore) FindActiveByTeamIDForUpdate(ctx context.Context, teamID string) (*subscription.Subscription, error) {
	return s.FindActiveByTeamID(ctx, teamID)
}

func (s *InMemorySubscriptionStore) FindActiveByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	return s.findActive(ctx, func(sub *subscription.Subscription) bool {
		return sub.UserID != nil && *sub.UserID == userID
	})
}

func (s *InMemorySubscriptionStore) findActive(ctx context.Context, ownerFn func(*subscription.Subscription) bool) (*subscription.Subscription, error) {
	now := time.Now().UTC()
	subs, err := s.InMemoryStore.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return subscriptionFilterFn(ctx, sub) && ownerFn(sub) && sub.IsActiveAt(now)
	}, subscriptionSortFn)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ierr.NewError("active subscription not found").
			Mark(ierr.ErrNotFound)
	}
	return subs[0], nil
}
