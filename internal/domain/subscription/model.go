package subscription

import (
	"time"

	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/types"
)

// Subscription is the internal record of a billable relationship. Exactly
// one of UserID or TeamID is set. The row is never deleted: cancellation is
// a timestamp, and upgrades supersede the row with a fresh one instead of
// mutating the plan reference.
type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// UserID is set for personal subscriptions, mutually exclusive with TeamID
	UserID *string `db:"user_id" json:"user_id"`

	// TeamID is set for team subscriptions, mutually exclusive with UserID
	TeamID *string `db:"team_id" json:"team_id"`

	// PlanID is the identifier of the plan this subscription bills against
	PlanID string `db:"plan_id" json:"plan_id"`

	// ProviderSubscriptionID is the payment provider's subscription id.
	// Nil until the subscription has been billed at least once.
	ProviderSubscriptionID *string `db:"provider_subscription_id" json:"provider_subscription_id"`

	// PaymentMethodID references the payment method charged for this
	// subscription. Nil for free plans and payment-waived subscriptions.
	PaymentMethodID *string `db:"payment_method_id" json:"payment_method_id"`

	// CancelledAt soft-cancels the subscription. Nil or a future timestamp
	// means the subscription is active.
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at"`

	// PaymentWaived is an admin override that bypasses payment collection
	PaymentWaived bool `db:"payment_waived" json:"payment_waived"`

	types.BaseModel
}

// Validate enforces the owner refinement: exactly one of UserID or TeamID.
func (s *Subscription) Validate() error {
	hasUser := s.UserID != nil && *s.UserID != ""
	hasTeam := s.TeamID != nil && *s.TeamID != ""
	if hasUser == hasTeam {
		return ierr.NewError("subscription must belong to exactly one of a user or a team").
			WithHint("Provide either a user id or a team id, not both").
			Mark(ierr.ErrValidation)
	}
	if s.PlanID == "" {
		return ierr.NewError("subscription requires a plan id").
			WithHint("Please provide a valid plan ID").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsActiveAt reports whether the subscription is active at the given time:
// not cancelled, or cancelled at a timestamp still in the future.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	return s.CancelledAt == nil || s.CancelledAt.After(t)
}

// Cancel stamps the cancellation timestamp. Idempotent: an already
// cancelled subscription keeps its original timestamp.
func (s *Subscription) Cancel(at time.Time) {
	if s.CancelledAt == nil {
		s.CancelledAt = &at
	}
}
