package paymentmethod

import (
	"context"
)

// Repository defines the interface for payment method persistence
type Repository interface {
	Create(ctx context.Context, pm *PaymentMethod) error
	Get(ctx context.Context, id string) (*PaymentMethod, error)
	FindLatestByTeamID(ctx context.Context, teamID string) (*PaymentMethod, error)
}
