package payment

import (
	"context"

	"github.com/atelierhq/atelier/internal/types"
)

// UpdateSubscriptionParams describes a mutation of the remote subscription's
// line items. PaymentBehavior is always error_if_incomplete on the wire; it
// is not configurable here on purpose.
type UpdateSubscriptionParams struct {
	Items             []LineItemMutation
	ProrationBehavior types.ProrationBehavior
	// DefaultPaymentMethodID switches the subscription's charge source when
	// set. May be the only effect of the call when Items is empty.
	DefaultPaymentMethodID *string
}

// PreviewInvoiceParams asks the provider what the next invoice would look
// like if the given item changes were applied.
type PreviewInvoiceParams struct {
	SubscriptionID    string
	Items             []LineItemMutation
	ProrationBehavior types.ProrationBehavior
}

// CreateSubscriptionParams creates a brand new remote subscription from a
// plan's prices.
type CreateSubscriptionParams struct {
	CustomerID             string
	Items                  []LineItemMutation
	DefaultPaymentMethodID *string
}

// Gateway is the payment provider client surface the billing engine depends
// on. The concrete implementation lives in internal/integration/stripe; the
// billing services only see this interface so tests can script provider
// behavior.
type Gateway interface {
	// GetSubscription performs a live read of the provider subscription.
	// A missing subscription is fatal for the caller: the internal record
	// referencing it is inconsistent and needs manual intervention.
	GetSubscription(ctx context.Context, providerSubscriptionID string) (*RemoteSubscription, error)

	// UpdateSubscription applies line item mutations to the remote
	// subscription in place, with error_if_incomplete payment behavior.
	UpdateSubscription(ctx context.Context, providerSubscriptionID string, params UpdateSubscriptionParams) (*RemoteSubscription, error)

	// CreateSubscription creates a new remote subscription
	CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (*RemoteSubscription, error)

	// PreviewUpcomingInvoice quotes the monetary effect of hypothetical item
	// changes without committing them.
	PreviewUpcomingInvoice(ctx context.Context, params PreviewInvoiceParams) (*InvoicePreview, error)

	// CreateCustomer registers a customer with the provider
	CreateCustomer(ctx context.Context, email, name string) (*Customer, error)

	// AttachSource turns a card token into a chargeable source on the
	// customer and makes it the default.
	AttachSource(ctx context.Context, customerID, cardToken string) (*Source, error)
}
