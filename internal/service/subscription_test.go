package service

import (
	"testing"
	"time"

	"github.com/atelierhq/atelier/internal/api/dto"
	"github.com/atelierhq/atelier/internal/domain/payment"
	"github.com/atelierhq/atelier/internal/domain/plan"
	"github.com/atelierhq/atelier/internal/domain/price"
	"github.com/atelierhq/atelier/internal/domain/subscription"
	"github.com/atelierhq/atelier/internal/domain/team"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/testutil"
	"github.com/atelierhq/atelier/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SubscriptionService
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	paymentMethodService := NewPaymentMethodService(
		stores.PaymentMethodRepo,
		stores.TeamRepo,
		s.GetGateway(),
		s.GetLogger(),
	)
	s.service = NewSubscriptionService(
		s.GetDB(),
		stores.PlanRepo,
		stores.PriceRepo,
		stores.SubscriptionRepo,
		stores.TeamRepo,
		stores.PaymentMethodRepo,
		paymentMethodService,
		s.GetGateway(),
		s.GetLogger(),
	)
}

type planSpec struct {
	name         string
	baseCents    int64
	perSeatCents int64
	basePriceID  string
	seatPriceID  string
	maximumSeats *int64
}

func (s *SubscriptionServiceSuite) seedPlan(spec planSpec) *plan.Plan {
	ctx := s.GetContext()

	p := &plan.Plan{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:             spec.name,
		BaseCostCents:    spec.baseCents,
		PerSeatCostCents: spec.perSeatCents,
		MaximumSeats:     spec.maximumSeats,
		BillingInterval:  types.BillingIntervalMonthly,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().PlanRepo.Create(ctx, p))

	if spec.basePriceID != "" {
		s.NoError(s.GetStores().PriceRepo.Create(ctx, &price.PlanPrice{
			ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN_PRICE),
			PlanID:          p.ID,
			ProviderPriceID: spec.basePriceID,
			Kind:            types.PriceKindBaseCost,
			BaseModel:       types.GetDefaultBaseModel(ctx),
		}))
	}
	if spec.seatPriceID != "" {
		s.NoError(s.GetStores().PriceRepo.Create(ctx, &price.PlanPrice{
			ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN_PRICE),
			PlanID:          p.ID,
			ProviderPriceID: spec.seatPriceID,
			Kind:            types.PriceKindPerSeat,
			BaseModel:       types.GetDefaultBaseModel(ctx),
		}))
	}

	return p
}

// seedTeam creates a team with the given number of billed members plus
// viewers, who never count toward seats.
func (s *SubscriptionServiceSuite) seedTeam(billed, viewers int) *team.Team {
	ctx := s.GetContext()

	t := &team.Team{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TEAM),
		Name:      "Test Studio",
		OwnerID:   types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USER),
		BaseModel: types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().TeamRepo.Create(ctx, t))

	addMember := func(role types.TeamRole) {
		s.NoError(s.GetStores().TeamRepo.AddMember(ctx, &team.Member{
			ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TEAM_MEMBER),
			TeamID:    t.ID,
			UserID:    types.GenerateUUIDWithPrefix(types.UUID_PREFIX_USER),
			Role:      role,
			BaseModel: types.GetDefaultBaseModel(ctx),
		}))
	}

	for i := 0; i < billed; i++ {
		role := types.TeamRoleEditor
		if i == 0 {
			role = types.TeamRoleOwner
		}
		addMember(role)
	}
	for i := 0; i < viewers; i++ {
		addMember(types.TeamRoleViewer)
	}

	return t
}

func (s *SubscriptionServiceSuite) seedActiveSubscription(teamID, planID string, providerSubID *string, waived bool) *subscription.Subscription {
	ctx := s.GetContext()

	sub := &subscription.Subscription{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		TeamID:                 lo.ToPtr(teamID),
		PlanID:                 planID,
		ProviderSubscriptionID: providerSubID,
		PaymentWaived:          waived,
		BaseModel:              types.GetDefaultBaseModel(ctx),
	}
	s.NoError(s.GetStores().SubscriptionRepo.Create(ctx, sub))
	return sub
}

func (s *SubscriptionServiceSuite) TestUpgradeEndToEnd() {
	team := s.seedTeam(2, 1)
	current := s.seedPlan(planSpec{name: "Starter", baseCents: 1000, perSeatCents: 500, basePriceID: "price_base_old", seatPriceID: "price_seat_old"})
	target := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, perSeatCents: 2000, basePriceID: "price_base_new", seatPriceID: "price_seat_new"})

	remote := &payment.RemoteSubscription{
		ID:     "sub_remote_1",
		Status: payment.RemoteSubscriptionStatusActive,
		Items: []payment.RemoteLineItem{
			{ID: "si_1", PriceID: "price_base_old", Quantity: 1},
			{ID: "si_2", PriceID: "price_seat_old", Quantity: 2},
		},
	}
	s.GetGateway().SeedSubscription(remote)
	active := s.seedActiveSubscription(team.ID, current.ID, lo.ToPtr(remote.ID), false)

	resp, err := s.service.UpgradeSubscription(s.GetContext(), active.ID, dto.UpgradeSubscriptionRequest{
		PlanID:    target.ID,
		CardToken: lo.ToPtr("tok_visa"),
	})
	s.NoError(err)
	s.NotNil(resp)

	// The previous row is cancelled, the new one carries the same external id.
	s.NotEqual(active.ID, resp.Subscription.ID)
	s.Equal(target.ID, resp.Subscription.PlanID)
	s.Equal(remote.ID, *resp.Subscription.ProviderSubscriptionID)
	s.NotNil(resp.Subscription.PaymentMethodID)

	previous, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), active.ID)
	s.NoError(err)
	s.NotNil(previous.CancelledAt)
	s.False(previous.IsActiveAt(time.Now().UTC().Add(time.Second)))

	updates := s.GetGateway().CallsTo("UpdateSubscription")
	s.Len(updates, 1)
	s.Equal(remote.ID, updates[0].SubscriptionID)
	s.Equal(types.ProrationBehaviorAlwaysInvoice, updates[0].Update.ProrationBehavior)
	s.NotNil(updates[0].Update.DefaultPaymentMethodID)

	// Stale items are removed before anything is created.
	mutations := updates[0].Update.Items
	s.Len(mutations, 4)
	s.True(mutations[0].Deleted)
	s.True(mutations[1].Deleted)
	s.ElementsMatch([]string{"si_1", "si_2"}, []string{mutations[0].ItemID, mutations[1].ItemID})
	s.Equal("price_base_new", mutations[2].PriceID)
	s.Nil(mutations[2].Quantity)
	s.Equal("price_seat_new", mutations[3].PriceID)
	s.Equal(int64(2), *mutations[3].Quantity)

	// The card token became a stored payment method for the team.
	pm, err := s.GetStores().PaymentMethodRepo.FindLatestByTeamID(s.GetContext(), team.ID)
	s.NoError(err)
	s.Equal(pm.ID, *resp.Subscription.PaymentMethodID)
	s.Len(s.GetGateway().CallsTo("CreateCustomer"), 1)
	s.Len(s.GetGateway().CallsTo("AttachSource"), 1)
}

func (s *SubscriptionServiceSuite) TestUpgradePaidToFreeRejected() {
	team := s.seedTeam(2, 0)
	current := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, perSeatCents: 2000, basePriceID: "price_base_paid", seatPriceID: "price_seat_paid"})
	free := s.seedPlan(planSpec{name: "Free", basePriceID: "price_base_free"})

	remote := &payment.RemoteSubscription{ID: "sub_remote_2", Status: payment.RemoteSubscriptionStatusActive}
	s.GetGateway().SeedSubscription(remote)
	active := s.seedActiveSubscription(team.ID, current.ID, lo.ToPtr(remote.ID), false)

	_, err := s.service.UpgradeSubscription(s.GetContext(), active.ID, dto.UpgradeSubscriptionRequest{PlanID: free.ID})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	// Nothing was sent to the provider and the subscription is untouched.
	s.Empty(s.GetGateway().CallsTo("UpdateSubscription"))
	still, err := s.GetStores().SubscriptionRepo.FindActiveByTeamID(s.GetContext(), team.ID)
	s.NoError(err)
	s.Equal(active.ID, still.ID)
	s.Nil(still.CancelledAt)
}

func (s *SubscriptionServiceSuite) TestUpgradeRequiresCardToken() {
	team := s.seedTeam(1, 0)
	current := s.seedPlan(planSpec{name: "Free", basePriceID: "price_base_free"})
	target := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, basePriceID: "price_base_paid"})

	active := s.seedActiveSubscription(team.ID, current.ID, nil, false)

	_, err := s.service.UpgradeSubscription(s.GetContext(), active.ID, dto.UpgradeSubscriptionRequest{PlanID: target.ID})
	s.Error(err)
	s.True(ierr.IsPaymentRequired(err))
	s.Empty(s.GetGateway().Calls)
}

func (s *SubscriptionServiceSuite) TestUpgradeSeatChangeOnly() {
	team := s.seedTeam(3, 0)
	p := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, perSeatCents: 2000, basePriceID: "price_base", seatPriceID: "price_seat"})

	remote := &payment.RemoteSubscription{
		ID:     "sub_remote_3",
		Status: payment.RemoteSubscriptionStatusActive,
		Items: []payment.RemoteLineItem{
			{ID: "si_base", PriceID: "price_base", Quantity: 1},
			{ID: "si_seat", PriceID: "price_seat", Quantity: 2},
		},
	}
	s.GetGateway().SeedSubscription(remote)
	active := s.seedActiveSubscription(team.ID, p.ID, lo.ToPtr(remote.ID), false)

	resp, err := s.service.UpgradeSubscription(s.GetContext(), active.ID, dto.UpgradeSubscriptionRequest{
		PlanID:    p.ID,
		CardToken: lo.ToPtr("tok_visa"),
	})
	s.NoError(err)

	updates := s.GetGateway().CallsTo("UpdateSubscription")
	s.Len(updates, 1)
	mutations := updates[0].Update.Items
	s.Len(mutations, 1)
	s.Equal("si_seat", mutations[0].ItemID)
	s.Equal("price_seat", mutations[0].PriceID)
	s.Equal(int64(3), *mutations[0].Quantity)
	s.False(mutations[0].Deleted)

	s.Equal(remote.ID, *resp.Subscription.ProviderSubscriptionID)
}

func (s *SubscriptionServiceSuite) TestUpgradeFromFreeCreatesRemoteSubscription() {
	team := s.seedTeam(2, 0)
	free := s.seedPlan(planSpec{name: "Free", basePriceID: "price_base_free"})
	target := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, perSeatCents: 2000, basePriceID: "price_base_paid", seatPriceID: "price_seat_paid"})

	active := s.seedActiveSubscription(team.ID, free.ID, nil, false)

	resp, err := s.service.UpgradeSubscription(s.GetContext(), active.ID, dto.UpgradeSubscriptionRequest{
		PlanID:    target.ID,
		CardToken: lo.ToPtr("tok_visa"),
	})
	s.NoError(err)

	// No remote subscription existed, so one is created instead of mutated.
	s.Empty(s.GetGateway().CallsTo("UpdateSubscription"))
	creates := s.GetGateway().CallsTo("CreateSubscription")
	s.Len(creates, 1)
	s.Len(creates[0].Create.Items, 2)
	s.NotNil(resp.Subscription.ProviderSubscriptionID)
}

func (s *SubscriptionServiceSuite) TestUpgradeWithPaymentWaived() {
	team := s.seedTeam(2, 0)
	current := s.seedPlan(planSpec{name: "Starter", baseCents: 1000, basePriceID: "price_base_old"})
	target := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, basePriceID: "price_base_new"})

	remote := &payment.RemoteSubscription{
		ID:     "sub_remote_4",
		Status: payment.RemoteSubscriptionStatusActive,
		Items:  []payment.RemoteLineItem{{ID: "si_1", PriceID: "price_base_old", Quantity: 1}},
	}
	s.GetGateway().SeedSubscription(remote)
	active := s.seedActiveSubscription(team.ID, current.ID, lo.ToPtr(remote.ID), true)

	resp, err := s.service.UpgradeSubscription(s.GetContext(), active.ID, dto.UpgradeSubscriptionRequest{PlanID: target.ID})
	s.NoError(err)

	// Waived teams never go through payment method setup.
	s.Empty(s.GetGateway().CallsTo("CreateCustomer"))
	s.Empty(s.GetGateway().CallsTo("AttachSource"))
	updates := s.GetGateway().CallsTo("UpdateSubscription")
	s.Len(updates, 1)
	s.Nil(updates[0].Update.DefaultPaymentMethodID)
	s.True(resp.Subscription.PaymentWaived)
}

func (s *SubscriptionServiceSuite) TestUpgradeWithPaymentWaivedNeverBilled() {
	team := s.seedTeam(2, 0)
	free := s.seedPlan(planSpec{name: "Free", basePriceID: "price_base_free"})
	target := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, basePriceID: "price_base_paid"})

	// Waived and never billed remotely: no provider subscription exists.
	active := s.seedActiveSubscription(team.ID, free.ID, nil, true)

	resp, err := s.service.UpgradeSubscription(s.GetContext(), active.ID, dto.UpgradeSubscriptionRequest{PlanID: target.ID})
	s.NoError(err)

	// The subscription stays internal-only; the provider is never involved.
	s.Nil(resp.Subscription.ProviderSubscriptionID)
	s.Nil(resp.Subscription.PaymentMethodID)
	s.True(resp.Subscription.PaymentWaived)
	s.Equal(target.ID, resp.Subscription.PlanID)
	s.Empty(s.GetGateway().Calls)

	previous, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), active.ID)
	s.NoError(err)
	s.NotNil(previous.CancelledAt)
}

func (s *SubscriptionServiceSuite) TestUpgradeProviderFailureLeavesSubscriptionActive() {
	team := s.seedTeam(2, 0)
	current := s.seedPlan(planSpec{name: "Starter", baseCents: 1000, basePriceID: "price_base_old"})
	target := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, basePriceID: "price_base_new"})

	remote := &payment.RemoteSubscription{
		ID:     "sub_remote_9",
		Status: payment.RemoteSubscriptionStatusActive,
		Items:  []payment.RemoteLineItem{{ID: "si_1", PriceID: "price_base_old", Quantity: 1}},
	}
	s.GetGateway().SeedSubscription(remote)
	active := s.seedActiveSubscription(team.ID, current.ID, lo.ToPtr(remote.ID), false)

	s.GetGateway().FailNext(ierr.NewError("provider unavailable").
		WithHint("The payment provider could not be reached").
		Mark(ierr.ErrProvider))

	_, err := s.service.UpgradeSubscription(s.GetContext(), active.ID, dto.UpgradeSubscriptionRequest{
		PlanID:    target.ID,
		CardToken: lo.ToPtr("tok_visa"),
	})
	s.Error(err)
	s.True(ierr.IsProvider(err))

	// The failure happened before anything was mutated: the previous row
	// is still the active one and the remote subscription was not touched.
	still, err := s.GetStores().SubscriptionRepo.FindActiveByTeamID(s.GetContext(), team.ID)
	s.NoError(err)
	s.Equal(active.ID, still.ID)
	s.Nil(still.CancelledAt)
	s.Empty(s.GetGateway().CallsTo("UpdateSubscription"))
}

func (s *SubscriptionServiceSuite) TestUpgradeMissingPreviousPlan() {
	team := s.seedTeam(1, 0)
	target := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, basePriceID: "price_base_new"})

	// The active row references a plan id that no longer resolves.
	active := s.seedActiveSubscription(team.ID, "plan_missing", nil, false)

	_, err := s.service.UpgradeSubscription(s.GetContext(), active.ID, dto.UpgradeSubscriptionRequest{
		PlanID:    target.ID,
		CardToken: lo.ToPtr("tok_visa"),
	})
	s.Error(err)
	s.True(ierr.IsInternal(err))
}

func (s *SubscriptionServiceSuite) TestUpgradeStaleSubscriptionIDRejected() {
	team := s.seedTeam(1, 0)
	free := s.seedPlan(planSpec{name: "Free", basePriceID: "price_base_free"})
	other := s.seedPlan(planSpec{name: "Free Plus", basePriceID: "price_base_free_plus"})

	stale := s.seedActiveSubscription(team.ID, free.ID, nil, false)
	_, err := s.service.CancelSubscription(s.GetContext(), stale.ID)
	s.NoError(err)
	replacement := s.seedActiveSubscription(team.ID, free.ID, nil, false)

	_, err = s.service.UpgradeSubscription(s.GetContext(), stale.ID, dto.UpgradeSubscriptionRequest{PlanID: other.ID})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	// The team's real active subscription is untouched.
	still, err := s.GetStores().SubscriptionRepo.FindActiveByTeamID(s.GetContext(), team.ID)
	s.NoError(err)
	s.Equal(replacement.ID, still.ID)
	s.Equal(free.ID, still.PlanID)
	s.Empty(s.GetGateway().Calls)
}

func (s *SubscriptionServiceSuite) TestUpgradeSeatLimitExceeded() {
	team := s.seedTeam(3, 0)
	current := s.seedPlan(planSpec{name: "Free", basePriceID: "price_base_free"})
	target := s.seedPlan(planSpec{name: "Solo", baseCents: 5000, basePriceID: "price_base_solo", maximumSeats: lo.ToPtr(int64(1))})

	active := s.seedActiveSubscription(team.ID, current.ID, nil, false)

	_, err := s.service.UpgradeSubscription(s.GetContext(), active.ID, dto.UpgradeSubscriptionRequest{
		PlanID:    target.ID,
		CardToken: lo.ToPtr("tok_visa"),
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Empty(s.GetGateway().Calls)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionFreePlan() {
	team := s.seedTeam(2, 0)
	free := s.seedPlan(planSpec{name: "Free", basePriceID: "price_base_free"})

	resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		PlanID: free.ID,
		TeamID: lo.ToPtr(team.ID),
	})
	s.NoError(err)

	// Free plans are recorded internally without touching the provider.
	s.Nil(resp.Subscription.ProviderSubscriptionID)
	s.Nil(resp.Subscription.PaymentMethodID)
	s.Empty(s.GetGateway().Calls)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionPaidPlan() {
	team := s.seedTeam(2, 0)
	paid := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, perSeatCents: 2000, basePriceID: "price_base", seatPriceID: "price_seat"})

	resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		PlanID:    paid.ID,
		TeamID:    lo.ToPtr(team.ID),
		CardToken: lo.ToPtr("tok_visa"),
	})
	s.NoError(err)

	s.NotNil(resp.Subscription.ProviderSubscriptionID)
	s.NotNil(resp.Subscription.PaymentMethodID)

	creates := s.GetGateway().CallsTo("CreateSubscription")
	s.Len(creates, 1)
	s.Len(creates[0].Create.Items, 2)
	s.NotNil(creates[0].Create.DefaultPaymentMethodID)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionPaidRequiresCardToken() {
	team := s.seedTeam(1, 0)
	paid := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, basePriceID: "price_base"})

	_, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		PlanID: paid.ID,
		TeamID: lo.ToPtr(team.ID),
	})
	s.Error(err)
	s.True(ierr.IsPaymentRequired(err))
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionDuplicateActive() {
	team := s.seedTeam(1, 0)
	free := s.seedPlan(planSpec{name: "Free", basePriceID: "price_base_free"})
	s.seedActiveSubscription(team.ID, free.ID, nil, false)

	_, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		PlanID: free.ID,
		TeamID: lo.ToPtr(team.ID),
	})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionOwnerValidation() {
	free := s.seedPlan(planSpec{name: "Free", basePriceID: "price_base_free"})

	_, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{PlanID: free.ID})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		PlanID: free.ID,
		TeamID: lo.ToPtr("team_1"),
		UserID: lo.ToPtr("user_1"),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionPlanWithoutPrices() {
	team := s.seedTeam(1, 0)
	p := s.seedPlan(planSpec{name: "Unconfigured", baseCents: 5000})

	_, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		PlanID:    p.ID,
		TeamID:    lo.ToPtr(team.ID),
		CardToken: lo.ToPtr("tok_visa"),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionServiceSuite) TestQuoteFirstSubscription() {
	team := s.seedTeam(3, 1)
	target := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, perSeatCents: 2000, basePriceID: "price_base", seatPriceID: "price_seat"})

	quote, err := s.service.QuoteUpgrade(s.GetContext(), dto.QuoteUpgradeRequest{
		PlanID: target.ID,
		TeamID: team.ID,
	})
	s.NoError(err)

	// Base 100.00 plus 3 billed seats at 20.00; the viewer does not count.
	s.Equal(int64(16000), quote.ProratedChargeCents)
	s.Equal("160.00", quote.ProratedChargeDisplay)
	s.Empty(s.GetGateway().CallsTo("PreviewUpcomingInvoice"))
}

func (s *SubscriptionServiceSuite) TestQuotePaidToFree() {
	team := s.seedTeam(2, 0)
	current := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, basePriceID: "price_base_paid"})
	free := s.seedPlan(planSpec{name: "Free", basePriceID: "price_base_free"})

	remote := &payment.RemoteSubscription{ID: "sub_remote_5", Status: payment.RemoteSubscriptionStatusActive}
	s.GetGateway().SeedSubscription(remote)
	s.seedActiveSubscription(team.ID, current.ID, lo.ToPtr(remote.ID), false)

	quote, err := s.service.QuoteUpgrade(s.GetContext(), dto.QuoteUpgradeRequest{
		PlanID: free.ID,
		TeamID: team.ID,
	})
	s.NoError(err)
	s.Equal(int64(0), quote.ProratedChargeCents)
	s.Empty(s.GetGateway().Calls)
}

func (s *SubscriptionServiceSuite) TestQuoteNoBillableChange() {
	team := s.seedTeam(2, 0)
	p := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, perSeatCents: 2000, basePriceID: "price_base", seatPriceID: "price_seat"})

	remote := &payment.RemoteSubscription{
		ID:     "sub_remote_6",
		Status: payment.RemoteSubscriptionStatusActive,
		Items: []payment.RemoteLineItem{
			{ID: "si_base", PriceID: "price_base", Quantity: 1},
			{ID: "si_seat", PriceID: "price_seat", Quantity: 2},
		},
	}
	s.GetGateway().SeedSubscription(remote)
	s.seedActiveSubscription(team.ID, p.ID, lo.ToPtr(remote.ID), false)

	quote, err := s.service.QuoteUpgrade(s.GetContext(), dto.QuoteUpgradeRequest{
		PlanID: p.ID,
		TeamID: team.ID,
	})
	s.NoError(err)
	s.Equal(int64(0), quote.ProratedChargeCents)
	s.Equal("0.00", quote.ProratedChargeDisplay)
	s.Empty(s.GetGateway().CallsTo("PreviewUpcomingInvoice"))
}

func (s *SubscriptionServiceSuite) TestQuoteProviderCancelledOutOfBand() {
	team := s.seedTeam(2, 0)
	current := s.seedPlan(planSpec{name: "Starter", baseCents: 1000, basePriceID: "price_base_old"})
	target := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, perSeatCents: 2000, basePriceID: "price_base_new", seatPriceID: "price_seat_new"})

	remote := &payment.RemoteSubscription{ID: "sub_remote_7", Status: payment.RemoteSubscriptionStatusCanceled}
	s.GetGateway().SeedSubscription(remote)
	active := s.seedActiveSubscription(team.ID, current.ID, lo.ToPtr(remote.ID), false)

	quote, err := s.service.QuoteUpgrade(s.GetContext(), dto.QuoteUpgradeRequest{
		PlanID: target.ID,
		TeamID: team.ID,
	})
	s.NoError(err)

	// Full plan cost, and the internal record catches up with the provider.
	s.Equal(int64(14000), quote.ProratedChargeCents)
	stamped, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), active.ID)
	s.NoError(err)
	s.NotNil(stamped.CancelledAt)
}

func (s *SubscriptionServiceSuite) TestQuoteUsesProviderPreview() {
	team := s.seedTeam(2, 0)
	current := s.seedPlan(planSpec{name: "Starter", baseCents: 1000, basePriceID: "price_base_old"})
	target := s.seedPlan(planSpec{name: "Studio", baseCents: 10000, perSeatCents: 2000, basePriceID: "price_base_new", seatPriceID: "price_seat_new"})

	remote := &payment.RemoteSubscription{
		ID:     "sub_remote_8",
		Status: payment.RemoteSubscriptionStatusActive,
		Items:  []payment.RemoteLineItem{{ID: "si_1", PriceID: "price_base_old", Quantity: 1}},
	}
	s.GetGateway().SeedSubscription(remote)
	s.seedActiveSubscription(team.ID, current.ID, lo.ToPtr(remote.ID), false)
	s.GetGateway().SetPreviewTotal(4321)

	quote, err := s.service.QuoteUpgrade(s.GetContext(), dto.QuoteUpgradeRequest{
		PlanID: target.ID,
		TeamID: team.ID,
	})
	s.NoError(err)

	// The provider's billing-period-aware amount is returned verbatim.
	s.Equal(int64(4321), quote.ProratedChargeCents)
	s.Equal("43.21", quote.ProratedChargeDisplay)

	previews := s.GetGateway().CallsTo("PreviewUpcomingInvoice")
	s.Len(previews, 1)
	s.Equal(remote.ID, previews[0].SubscriptionID)
	s.Len(previews[0].Preview.Items, 3)
	s.Equal(types.ProrationBehaviorAlwaysInvoice, previews[0].Preview.ProrationBehavior)

	// Quoting never mutates anything.
	s.Empty(s.GetGateway().CallsTo("UpdateSubscription"))
}

func (s *SubscriptionServiceSuite) TestCancelSubscription() {
	team := s.seedTeam(1, 0)
	free := s.seedPlan(planSpec{name: "Free", basePriceID: "price_base_free"})
	active := s.seedActiveSubscription(team.ID, free.ID, nil, false)

	resp, err := s.service.CancelSubscription(s.GetContext(), active.ID)
	s.NoError(err)
	s.NotNil(resp.Subscription.CancelledAt)
	first := *resp.Subscription.CancelledAt

	// Cancelling again keeps the original timestamp.
	resp, err = s.service.CancelSubscription(s.GetContext(), active.ID)
	s.NoError(err)
	s.Equal(first, *resp.Subscription.CancelledAt)

	_, err = s.GetStores().SubscriptionRepo.FindActiveByTeamID(s.GetContext(), team.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *SubscriptionServiceSuite) TestGetSubscription() {
	team := s.seedTeam(1, 0)
	free := s.seedPlan(planSpec{name: "Free", basePriceID: "price_base_free"})
	active := s.seedActiveSubscription(team.ID, free.ID, nil, false)

	resp, err := s.service.GetSubscription(s.GetContext(), active.ID)
	s.NoError(err)
	s.Equal(active.ID, resp.Subscription.ID)

	_, err = s.service.GetSubscription(s.GetContext(), "subs_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
