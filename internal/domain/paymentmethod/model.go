package paymentmethod

import (
	"github.com/atelierhq/atelier/internal/types"
)

// PaymentMethod records a chargeable payment source registered with the
// payment provider on behalf of a team or user.
type PaymentMethod struct {
	ID                      string  `db:"id" json:"id"`
	TeamID                  *string `db:"team_id" json:"team_id"`
	UserID                  *string `db:"user_id" json:"user_id"`
	ProviderCustomerID      string  `db:"provider_customer_id" json:"provider_customer_id"`
	ProviderPaymentMethodID string  `db:"provider_payment_method_id" json:"provider_payment_method_id"`
	types.BaseModel
}
