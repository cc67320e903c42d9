package plan

import (
	"github.com/atelierhq/atelier/internal/types"
)

// Plan is an immutable priced offering. Costs are integer minor-currency
// units per billing interval. A plan becomes immutable by business rule once
// a live subscription references it.
type Plan struct {
	ID               string                `db:"id" json:"id"`
	Name             string                `db:"name" json:"name"`
	LookupKey        string                `db:"lookup_key" json:"lookup_key"`
	Description      string                `db:"description" json:"description"`
	BaseCostCents    int64                 `db:"base_cost_cents" json:"base_cost_cents"`
	PerSeatCostCents int64                 `db:"per_seat_cost_cents" json:"per_seat_cost_cents"`
	MaximumSeats     *int64                `db:"maximum_seats" json:"maximum_seats"`
	BillingInterval  types.BillingInterval `db:"billing_interval" json:"billing_interval"`
	types.BaseModel
}

// IsFree reports whether the plan collects no money at all. Only the exact
// zero/zero combination counts as free; negative costs are treated as paid
// so malformed plans never skip payment collection.
func (p *Plan) IsFree() bool {
	return p.BaseCostCents == 0 && p.PerSeatCostCents == 0
}

// IsPaid is the complement of IsFree
func (p *Plan) IsPaid() bool {
	return !p.IsFree()
}

// CostForSeats returns the full per-interval cost of the plan for the given
// seat count, in minor-currency units.
func (p *Plan) CostForSeats(seatCount int64) int64 {
	return p.BaseCostCents + p.PerSeatCostCents*seatCount
}
