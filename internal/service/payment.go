package service

import (
	"context"
	"fmt"

	"github.com/atelierhq/atelier/internal/domain/payment"
	"github.com/atelierhq/atelier/internal/domain/paymentmethod"
	"github.com/atelierhq/atelier/internal/domain/team"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/logger"
	"github.com/atelierhq/atelier/internal/types"
	"github.com/samber/lo"
)

// PaymentMethodService turns card tokens into chargeable payment methods
// registered with the payment provider.
type PaymentMethodService interface {
	CreatePaymentMethodForTeam(ctx context.Context, teamID, cardToken string) (*paymentmethod.PaymentMethod, error)
}

type paymentMethodService struct {
	paymentMethodRepo paymentmethod.Repository
	teamRepo          team.Repository
	gateway           payment.Gateway
	logger            *logger.Logger
}

func NewPaymentMethodService(
	paymentMethodRepo paymentmethod.Repository,
	teamRepo team.Repository,
	gateway payment.Gateway,
	logger *logger.Logger,
) PaymentMethodService {
	return &paymentMethodService{
		paymentMethodRepo: paymentMethodRepo,
		teamRepo:          teamRepo,
		gateway:           gateway,
		logger:            logger,
	}
}

// CreatePaymentMethodForTeam attaches a card token to the team's provider
// customer, creating the customer first if the team has never paid before.
func (s *paymentMethodService) CreatePaymentMethodForTeam(ctx context.Context, teamID, cardToken string) (*paymentmethod.PaymentMethod, error) {
	if cardToken == "" {
		return nil, ierr.NewError("missing card token").
			WithHint("A card token is required to set up payment").
			Mark(ierr.ErrPaymentRequired)
	}

	t, err := s.teamRepo.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.resolveCustomerID(ctx, t)
	if err != nil {
		return nil, err
	}

	source, err := s.gateway.AttachSource(ctx, customerID, cardToken)
	if err != nil {
		return nil, err
	}

	pm := &paymentmethod.PaymentMethod{
		ID:                      types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_METHOD),
		TeamID:                  lo.ToPtr(teamID),
		ProviderCustomerID:      customerID,
		ProviderPaymentMethodID: source.ID,
		BaseModel:               types.GetDefaultBaseModel(ctx),
	}
	if err := s.paymentMethodRepo.Create(ctx, pm); err != nil {
		return nil, err
	}

	s.logger.Infow("created payment method",
		"payment_method_id", pm.ID,
		"team_id", teamID,
		"provider_customer_id", customerID,
	)

	return pm, nil
}

// resolveCustomerID reuses the provider customer from the team's most recent
// payment method, so one team never fans out into multiple provider
// customers.
func (s *paymentMethodService) resolveCustomerID(ctx context.Context, t *team.Team) (string, error) {
	existing, err := s.paymentMethodRepo.FindLatestByTeamID(ctx, t.ID)
	if err == nil {
		return existing.ProviderCustomerID, nil
	}
	if !ierr.IsNotFound(err) {
		return "", err
	}

	customer, err := s.gateway.CreateCustomer(ctx, "", fmt.Sprintf("team %s", t.Name))
	if err != nil {
		return "", err
	}
	return customer.ID, nil
}
