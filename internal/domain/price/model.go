package price

import (
	"github.com/atelierhq/atelier/internal/types"
)

// PlanPrice is one priced line item belonging to a plan. ProviderPriceID is
// the opaque identifier issued by the payment provider for this price; the
// diff engine matches remote line items against it.
//
// A plan is expected to carry at most one BASE_COST and at most one PER_SEAT
// price. The diff algorithm matches per price id and so tolerates
// duplicates, but nothing in the catalog produces them.
type PlanPrice struct {
	ID              string          `db:"id" json:"id"`
	PlanID          string          `db:"plan_id" json:"plan_id"`
	ProviderPriceID string          `db:"provider_price_id" json:"provider_price_id"`
	Kind            types.PriceKind `db:"kind" json:"kind"`
	types.BaseModel
}
