package service

import (
	"context"
	"time"

	"github.com/atelierhq/atelier/internal/api/dto"
	"github.com/atelierhq/atelier/internal/cache"
	"github.com/atelierhq/atelier/internal/domain/plan"
	"github.com/atelierhq/atelier/internal/domain/price"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/logger"
	"github.com/atelierhq/atelier/internal/postgres"
	"github.com/atelierhq/atelier/internal/types"
	"github.com/samber/lo"
)

type PlanService interface {
	CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error)
	GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error)
	ListPlans(ctx context.Context) (*dto.ListPlansResponse, error)
}

type planService struct {
	planRepo  plan.Repository
	priceRepo price.Repository
	client    postgres.IClient
	cache     cache.Cache
	logger    *logger.Logger
}

func NewPlanService(
	client postgres.IClient,
	planRepo plan.Repository,
	priceRepo price.Repository,
	planCache cache.Cache,
	logger *logger.Logger,
) PlanService {
	return &planService{
		client:    client,
		planRepo:  planRepo,
		priceRepo: priceRepo,
		cache:     planCache,
		logger:    logger,
	}
}

func (s *planService) CreatePlan(ctx context.Context, req dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// A paid plan without provider prices could never be billed; reject it
	// at creation instead of at upgrade time.
	p := req.ToPlan(ctx)
	if p.IsPaid() && len(req.Prices) == 0 {
		return nil, ierr.NewError("paid plan requires prices").
			WithHint("A paid plan must carry at least one provider price").
			Mark(ierr.ErrValidation)
	}

	prices := lo.Map(req.Prices, func(pr dto.CreatePlanPriceRequest, _ int) *price.PlanPrice {
		return pr.ToPlanPrice(ctx, p.ID)
	})

	err := s.client.WithTx(ctx, func(ctx context.Context) error {
		if err := s.planRepo.Create(ctx, p); err != nil {
			return err
		}
		if len(prices) > 0 {
			return s.priceRepo.CreateBulk(ctx, prices)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("created plan",
		"plan_id", p.ID,
		"base_cost_cents", p.BaseCostCents,
		"per_seat_cost_cents", p.PerSeatCostCents,
		"prices", len(prices),
	)

	return &dto.PlanResponse{Plan: p, Prices: prices}, nil
}

func (s *planService) GetPlan(ctx context.Context, id string) (*dto.PlanResponse, error) {
	cacheKey := cache.PrefixPlan + types.GetTenantID(ctx) + ":" + id
	if cached, ok := s.cache.Get(ctx, cacheKey); ok {
		if resp, ok := cached.(*dto.PlanResponse); ok {
			return resp, nil
		}
	}

	p, err := s.planRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	prices, err := s.priceRepo.ListByPlanID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &dto.PlanResponse{Plan: p, Prices: prices}
	s.cache.Set(ctx, cacheKey, resp, 15*time.Minute)
	return resp, nil
}

func (s *planService) ListPlans(ctx context.Context) (*dto.ListPlansResponse, error) {
	plans, err := s.planRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		prices, err := s.priceRepo.ListByPlanID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, &dto.PlanResponse{Plan: p, Prices: prices})
	}

	return &dto.ListPlansResponse{Items: items, Total: len(items)}, nil
}
