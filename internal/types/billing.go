package types

// BillingInterval is the cadence at which a plan bills
type BillingInterval string

const (
	BillingIntervalMonthly  BillingInterval = "MONTHLY"
	BillingIntervalAnnually BillingInterval = "ANNUALLY"
)

func (b BillingInterval) Validate() bool {
	switch b {
	case BillingIntervalMonthly, BillingIntervalAnnually:
		return true
	}
	return false
}

// PriceKind describes which cost component of a plan a price covers
type PriceKind string

const (
	// PriceKindBaseCost is the flat per-interval component of a plan
	PriceKindBaseCost PriceKind = "BASE_COST"
	// PriceKindPerSeat is the seat-count driven component of a plan
	PriceKindPerSeat PriceKind = "PER_SEAT"
)

func (k PriceKind) Validate() bool {
	switch k {
	case PriceKindBaseCost, PriceKindPerSeat:
		return true
	}
	return false
}

// ProrationBehavior is the provider-level proration behavior sent on
// subscription mutations and invoice previews. Values follow the payment
// provider's API verbatim.
type ProrationBehavior string

const (
	// ProrationBehaviorAlwaysInvoice charges the prorated delta immediately
	ProrationBehaviorAlwaysInvoice ProrationBehavior = "always_invoice"
	// ProrationBehaviorCreateProrations accrues credit/debit without an immediate charge
	ProrationBehaviorCreateProrations ProrationBehavior = "create_prorations"
	// ProrationBehaviorNone signals that nothing billable changed
	ProrationBehaviorNone ProrationBehavior = "none"
)

// PaymentBehavior controls how the provider treats a mutation whose payment
// cannot be collected. We always send error_if_incomplete so a failed charge
// surfaces as an error instead of leaving the remote subscription in a
// partially paid state.
type PaymentBehavior string

const (
	PaymentBehaviorErrorIfIncomplete PaymentBehavior = "error_if_incomplete"
)
