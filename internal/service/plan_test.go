package service

import (
	"testing"

	"github.com/atelierhq/atelier/internal/api/dto"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/testutil"
	"github.com/atelierhq/atelier/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type PlanServiceSuite struct {
	testutil.BaseServiceTestSuite
	service PlanService
	cache   *testutil.RecordingCache
}

func TestPlanService(t *testing.T) {
	suite.Run(t, new(PlanServiceSuite))
}

func (s *PlanServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	s.cache = testutil.NewRecordingCache()
	stores := s.GetStores()
	s.service = NewPlanService(
		s.GetDB(),
		stores.PlanRepo,
		stores.PriceRepo,
		s.cache,
		s.GetLogger(),
	)
}

func (s *PlanServiceSuite) TestCreatePlan() {
	resp, err := s.service.CreatePlan(s.GetContext(), dto.CreatePlanRequest{
		Name:             "Studio",
		LookupKey:        "studio-monthly",
		BaseCostCents:    10000,
		PerSeatCostCents: 2000,
		BillingInterval:  types.BillingIntervalMonthly,
		Prices: []dto.CreatePlanPriceRequest{
			{ProviderPriceID: "price_base", Kind: types.PriceKindBaseCost},
			{ProviderPriceID: "price_seat", Kind: types.PriceKindPerSeat},
		},
	})
	s.NoError(err)
	s.Equal("Studio", resp.Plan.Name)
	s.False(resp.Plan.IsFree())
	s.Len(resp.Prices, 2)

	stored, err := s.GetStores().PriceRepo.ListByPlanID(s.GetContext(), resp.Plan.ID)
	s.NoError(err)
	s.Len(stored, 2)
}

func (s *PlanServiceSuite) TestCreatePlanValidation() {
	tests := []struct {
		name string
		req  dto.CreatePlanRequest
	}{
		{
			name: "invalid billing interval",
			req: dto.CreatePlanRequest{
				Name:            "Broken",
				BillingInterval: "weekly",
			},
		},
		{
			name: "negative cost",
			req: dto.CreatePlanRequest{
				Name:            "Broken",
				BaseCostCents:   -100,
				BillingInterval: types.BillingIntervalMonthly,
			},
		},
		{
			name: "duplicate price kind",
			req: dto.CreatePlanRequest{
				Name:            "Broken",
				BaseCostCents:   1000,
				BillingInterval: types.BillingIntervalMonthly,
				Prices: []dto.CreatePlanPriceRequest{
					{ProviderPriceID: "price_1", Kind: types.PriceKindBaseCost},
					{ProviderPriceID: "price_2", Kind: types.PriceKindBaseCost},
				},
			},
		},
		{
			name: "paid plan without prices",
			req: dto.CreatePlanRequest{
				Name:            "Broken",
				BaseCostCents:   1000,
				BillingInterval: types.BillingIntervalMonthly,
			},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.CreatePlan(s.GetContext(), tt.req)
			s.Error(err)
			s.True(ierr.IsValidation(err))
		})
	}
}

func (s *PlanServiceSuite) TestCreateFreePlanWithoutPrices() {
	resp, err := s.service.CreatePlan(s.GetContext(), dto.CreatePlanRequest{
		Name:            "Free",
		BillingInterval: types.BillingIntervalMonthly,
	})
	s.NoError(err)
	s.True(resp.Plan.IsFree())
	s.Empty(resp.Prices)
}

func (s *PlanServiceSuite) TestGetPlanCachesResponse() {
	created, err := s.service.CreatePlan(s.GetContext(), dto.CreatePlanRequest{
		Name:            "Studio",
		BaseCostCents:   10000,
		BillingInterval: types.BillingIntervalMonthly,
		Prices: []dto.CreatePlanPriceRequest{
			{ProviderPriceID: "price_base", Kind: types.PriceKindBaseCost},
		},
	})
	s.NoError(err)

	resp, err := s.service.GetPlan(s.GetContext(), created.Plan.ID)
	s.NoError(err)
	s.Equal(created.Plan.ID, resp.Plan.ID)
	s.Equal(1, s.cache.Misses)

	// Second read comes from the cache.
	resp, err = s.service.GetPlan(s.GetContext(), created.Plan.ID)
	s.NoError(err)
	s.Equal(created.Plan.ID, resp.Plan.ID)
	s.Equal(1, s.cache.Hits)
	s.Equal(1, s.cache.Misses)
}

func (s *PlanServiceSuite) TestGetPlanNotFound() {
	_, err := s.service.GetPlan(s.GetContext(), "plan_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PlanServiceSuite) TestListPlans() {
	for _, name := range []string{"Free", "Starter", "Studio"} {
		_, err := s.service.CreatePlan(s.GetContext(), dto.CreatePlanRequest{
			Name:            name,
			BillingInterval: types.BillingIntervalMonthly,
		})
		s.NoError(err)
	}

	resp, err := s.service.ListPlans(s.GetContext())
	s.NoError(err)
	s.Equal(3, resp.Total)
	s.Len(resp.Items, 3)
	names := lo.Map(resp.Items, func(p *dto.PlanResponse, _ int) string { return p.Plan.Name })
	s.ElementsMatch([]string{"Free", "Starter", "Studio"}, names)
}
