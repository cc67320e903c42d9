package service

import (
	"testing"

	"github.com/atelierhq/atelier/internal/domain/team"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/testutil"
	"github.com/atelierhq/atelier/internal/types"
	"github.com/stretchr/testify/suite"
)

type PaymentMethodServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PaymentMethodService
}

func TestPaymentMethodService(t *testing.T) {
	suite.Run(t, new(PaymentMethodServiceSuite))
}

func (s *PaymentMethodServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	s.service = NewPaymentMethodService(
		stores.PaymentMethodRepo,
		stores.TeamRepo,
		s.GetGateway(),
		s.GetLogger(),
	)
}

func (s *PaymentMethodServiceSuite) seedTeam() *team.Team {
	ctx := s.GetContext()
	t := &team.Team{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TEAM),
		Name:      "Test Studio",
		OwnerID:   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USER),
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().TeamRepo.Create(ctx, t))
	return t
}

func (s *PaymentMethodServiceSuite) TestCreatePaymentMethod() {
	t := s.seedTeam()

	pm, err := s.service.CreatePaymentMethodForTeam(s.GetContext(), t.ID, "tok_visa")
	s.NoError(err)
	s.Equal(t.ID, *pm.TeamID)
	s.NotEmpty(pm.ProviderCustomerID)
	s.NotEmpty(pm.ProviderPaymentMethodID)

	s.Len(s.GetGateway().CallsTo("CreateCustomer"), 1)
	s.Len(s.GetGateway().CallsTo("AttachSource"), 1)
}

func (s *PaymentMethodServiceSuite) TestReusesProviderCustomer() {
	t := s.seedTeam()

	first, err := s.service.CreatePaymentMethodForTeam(s.GetContext(), t.ID, "tok_visa")
	s.NoError(err)
	second, err := s.service.CreatePaymentMethodForTeam(s.GetContext(), t.ID, "tok_mastercard")
	s.NoError(err)

	// The team keeps one provider customer across card changes.
	s.Equal(first.ProviderCustomerID, second.ProviderCustomerID)
	s.NotEqual(first.ProviderPaymentMethodID, second.ProviderPaymentMethodID)
	s.Len(s.GetGateway().CallsTo("CreateCustomer"), 1)
	s.Len(s.GetGateway().CallsTo("AttachSource"), 2)

	latest, err := s.GetStores().PaymentMethodRepo.FindLatestByTeamID(s.GetContext(), t.ID)
	s.NoError(err)
	s.Equal(second.ID, latest.ID)
}

func (s *PaymentMethodServiceSuite) TestMissingCardToken() {
	t := s.seedTeam()

	_, err := s.service.CreatePaymentMethodForTeam(s.GetContext(), t.ID, "")
	s.Error(err)
	s.True(ierr.IsPaymentRequired(err))
	s.Empty(s.GetGateway().Calls)
}

func (s *PaymentMethodServiceSuite) TestTeamNotFound() {
	_, err := s.service.CreatePaymentMethodForTeam(s.GetContext(), "team_missing", "tok_visa")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
