package dto

import (
	"context"

	"github.com/atelierhq/atelier/internal/domain/plan"
	"github.com/atelierhq/atelier/internal/domain/price"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/types"
)

type CreatePlanRequest struct {
	Name             string                   `json:"name" binding:"required"`
	LookupKey        string                   `json:"lookup_key"`
	Description      string                   `json:"description"`
	BaseCostCents    int64                    `json:"base_cost_cents"`
	PerSeatCostCents int64                    `json:"per_seat_cost_cents"`
	MaximumSeats     *int64                   `json:"maximum_seats"`
	BillingInterval  types.BillingInterval    `json:"billing_interval" binding:"required"`
	Prices           []CreatePlanPriceRequest `json:"prices"`
}

type CreatePlanPriceRequest struct {
	ProviderPriceID string          `json:"provider_price_id" binding:"required"`
	Kind            types.PriceKind `json:"kind" binding:"required"`
}

func (r *CreatePlanRequest) Validate() error {
	if !r.BillingInterval.Validate() {
		return ierr.NewError("invalid billing interval").
			WithHintf("Billing interval must be %s or %s", types.BillingIntervalMonthly, types.BillingIntervalAnnually).
			Mark(ierr.ErrValidation)
	}
	if r.BaseCostCents < 0 || r.PerSeatCostCents < 0 {
		return ierr.NewError("plan costs cannot be negative").
			WithHint("Base and per-seat costs must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	baseCount, seatCount := 0, 0
	for _, p := range r.Prices {
		if !p.Kind.Validate() {
			return ierr.NewError("invalid price kind").
				WithHintf("Price kind must be %s or %s", types.PriceKindBaseCost, types.PriceKindPerSeat).
				Mark(ierr.ErrValidation)
		}
		switch p.Kind {
		case types.PriceKindBaseCost:
			baseCount++
		case types.PriceKindPerSeat:
			seatCount++
		}
	}
	if baseCount > 1 || seatCount > 1 {
		return ierr.NewError("duplicate price kind").
			WithHint("A plan may have at most one base cost price and one per-seat price").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *CreatePlanRequest) ToPlan(ctx context.Context) *plan.Plan {
	return &plan.Plan{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:             r.Name,
		LookupKey:        r.LookupKey,
		Description:      r.Description,
		BaseCostCents:    r.BaseCostCents,
		PerSeatCostCents: r.PerSeatCostCents,
		MaximumSeats:     r.MaximumSeats,
		BillingInterval:  r.BillingInterval,
		BaseModel:        types.GetDefaultBaseModel(ctx),
	}
}

func (r *CreatePlanPriceRequest) ToPlanPrice(ctx context.Context, planID string) *price.PlanPrice {
	return &price.PlanPrice{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN_PRICE),
		PlanID:          planID,
		ProviderPriceID: r.ProviderPriceID,
		Kind:            r.Kind,
		BaseModel:       types.GetDefaultBaseModel(ctx),
	}
}

type PlanResponse struct {
	*plan.Plan
	Prices []*price.PlanPrice `json:"prices,omitempty"`
}

type ListPlansResponse struct {
	Items []*PlanResponse `json:"items"`
	Total int             `json:"total"`
}
