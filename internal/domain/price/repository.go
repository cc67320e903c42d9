package price

import (
	"context"
)

// Repository defines the interface for plan price persistence
type Repository interface {
	Create(ctx context.Context, price *PlanPrice) error
	CreateBulk(ctx context.Context, prices []*PlanPrice) error
	Get(ctx context.Context, id string) (*PlanPrice, error)
	ListByPlanID(ctx context.Context, planID string) ([]*PlanPrice, error)
}
