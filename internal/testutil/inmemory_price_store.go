package testutil

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain/price"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/types"
)

// InMemoryPriceStore implements price.Repository
type InMemoryPriceStore struct {
	*InMemoryStore[*price.PlanPrice]
}

// NewInMemoryPriceStore creates a new in-memory price store
func NewInMemoryPriceStore() *InMemoryPriceStore {
	return &InMemoryPriceStore{
		InMemoryStore: NewInMemoryStore[*price.PlanPrice](),
	}
}

func priceFilterFn(ctx context.Context, p *price.PlanPrice) bool {
	if p == nil {
		return false
	}
	if tenantID, ok := ctx.Value(types.CtxTenantID).(string); ok {
		if p.TenantID != tenantID {
			return false
		}
	}
	return p.Status == types.StatusActive
}

func priceSortFn(i, j *price.PlanPrice) bool {
	if i == nil || j == nil {
		return false
	}
	if i.CreatedAt.Equal(j.CreatedAt) {
		return i.ID < j.ID
	}
	return i.CreatedAt.Before(j.CreatedAt)
}

func (s *InMemoryPriceStore) Create(ctx context.Context, p *price.PlanPrice) error {
	if p == nil {
		return fmt.Errorf("price cannot be nil")
	}
	return s.InMemoryStore.Create(ctx, p.ID, p)
}

func (s *InMemoryPriceStore) CreateBulk(ctx context.Context, prices []*price.PlanPrice) error {
	for _, p := range prices {
		if err := s.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *InMemoryPriceStore) Get(ctx context.Context, id string) (*price.PlanPrice, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("price not found").
			WithReportableDetails(map[string]any{"price_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return p, nil
}

func (s *InMemoryPriceStore) ListByPlanID(ctx context.Context, planID string) ([]*price.PlanPrice, error) {
	return s.InMemoryStore.List(ctx, func(ctx context.Context, p *price.PlanPrice) bool {
		return priceFilterFn(ctx, p) && p.PlanID == planID
	}, priceSortFn)
}
