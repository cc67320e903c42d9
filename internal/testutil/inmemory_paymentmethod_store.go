package testutil

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain/paymentmethod"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/types"
)

// InMemoryPaymentMethodStore implements paymentmethod.Repository
type InMemoryPaymentMethodStore struct {
	*InMemoryStore[*paymentmethod.PaymentMethod]
}

// NewInMemoryPaymentMethodStore creates a new in-memory payment method store
func NewInMemoryPaymentMethodStore() *InMemoryPaymentMethodStore {
	return &InMemoryPaymentMethodStore{
		InMemoryStore: NewInMemoryStore[*paymentmethod.PaymentMethod](),
	}
}

func paymentMethodFilterFn(ctx context.Context, pm *paymentmethod.PaymentMethod) bool {
	if pm == nil {
		return false
	}
	if tenantID, ok := ctx.Value(types.CtxTenantID).(string); ok {
		if pm.TenantID != tenantID {
			return false
		}
	}
	return pm.Status == types.StatusActive
}

func paymentMethodSortFn(i, j *paymentmethod.PaymentMethod) bool {
	if i == nil || j == nil {
		return false
	}
	return i.CreatedAt.After(j.CreatedAt)
}

func (s *InMemoryPaymentMethodStore) Create(ctx context.Context, pm *paymentmethod.PaymentMethod) error {
	if pm == nil {
		return fmt.Errorf("payment method cannot be nil")
	}
	return s.InMemoryStore.Create(ctx, pm.ID, pm)
}

func (s *InMemoryPaymentMethodStore) Get(ctx context.Context, id string) (*paymentmethod.PaymentMethod, error) {
	pm, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("payment method not found").
			WithReportableDetails(map[string]any{"payment_method_id": id}).
			Mark(ierr.ErrNotFound)
	}
	return pm, nil
}

func (s *InMemoryPaymentMethodStore) FindLatestByTeamID(ctx context.Context, teamID string) (*paymentmethod.PaymentMethod, error) {
	methods, err := s.InMemoryStore.List(ctx, func(ctx context.Context, pm *paymentmethod.PaymentMethod) bool {
		return paymentMethodFilterFn(ctx, pm) && pm.TeamID != nil && *pm.TeamID == teamID
	}, paymentMethodSortFn)
	if err != nil {
		return nil, err
	}
	if len(methods) == 0 {
		return nil, ierr.NewError("payment method not found").
			WithReportableDetails(map[string]any{"team_id": teamID}).
			Mark(ierr.ErrNotFound)
	}
	return methods[0], nil
}
