package dto

import (
	"time"

	"github.com/atelierhq/atelier/internal/domain/subscription"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/types"
)

type CreateSubscriptionRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
	// Exactly one of TeamID or UserID owns the subscription
	TeamID *string `json:"team_id"`
	UserID *string `json:"user_id"`
	// CardToken is required when subscribing to a paid plan
	CardToken *string `json:"stripe_card_token"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	hasUser := r.UserID != nil && *r.UserID != ""
	hasTeam := r.TeamID != nil && *r.TeamID != ""
	if hasUser == hasTeam {
		return ierr.NewError("subscription must belong to exactly one of a user or a team").
			WithHint("Provide either a user id or a team id, not both").
			Mark(ierr.ErrValidation)
	}
	return nil
}

type UpgradeSubscriptionRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
	// CardToken is required when upgrading into a paid plan
	CardToken *string `json:"stripe_card_token"`
}

type QuoteUpgradeRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
	TeamID string `json:"team_id" binding:"required"`
}

// UpgradeQuoteResponse is the monetary effect of a plan change before it is
// committed. Amounts are integer minor-currency units with a display string
// alongside.
type UpgradeQuoteResponse struct {
	ProratedChargeCents   int64     `json:"prorated_charge_cents"`
	ProratedChargeDisplay string    `json:"prorated_charge_display"`
	ProrationDate         time.Time `json:"proration_date"`
}

func NewUpgradeQuoteResponse(cents int64, prorationDate time.Time) *UpgradeQuoteResponse {
	return &UpgradeQuoteResponse{
		ProratedChargeCents:   cents,
		ProratedChargeDisplay: types.FormatCents(cents),
		ProrationDate:         prorationDate,
	}
}

type SubscriptionResponse struct {
	*subscription.Subscription
}
