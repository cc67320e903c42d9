package stripe

import (
	"context"
	"time"

	"github.com/atelierhq/atelier/internal/domain/payment"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/logger"
	"github.com/atelierhq/atelier/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/stripe/stripe-go/v82"
)

// Gateway implements payment.Gateway against the Stripe API
type Gateway struct {
	client *Client
	logger *logger.Logger
}

var _ payment.Gateway = (*Gateway)(nil)

func NewGateway(client *Client, logger *logger.Logger) *Gateway {
	return &Gateway{
		client: client,
		logger: logger,
	}
}

// GetSubscription performs a live read of the Stripe subscription. The
// result is never cached: Stripe owns the authoritative quantities and
// price ids.
func (g *Gateway) GetSubscription(ctx context.Context, providerSubscriptionID string) (*payment.RemoteSubscription, error) {
	sub, err := g.client.sc.V1Subscriptions.Retrieve(ctx, providerSubscriptionID, nil)
	if err != nil {
		if isNotFound(err) {
			// The internal record references a subscription Stripe does not
			// know about; this needs operator intervention, not a retry.
			return nil, ierr.WithError(err).
				WithHint("Something went wrong with your subscription, please contact support").
				WithReportableDetails(map[string]any{
					"provider_subscription_id": providerSubscriptionID,
				}).
				Mark(ierr.ErrInternal)
		}
		return nil, g.providerError(err, "failed to retrieve subscription from Stripe")
	}

	return fromStripeSubscription(sub), nil
}

// UpdateSubscription applies line item mutations to the Stripe subscription
// in place. error_if_incomplete is always sent so a failed payment surfaces
// as an error instead of an incomplete remote state.
func (g *Gateway) UpdateSubscription(ctx context.Context, providerSubscriptionID string, params payment.UpdateSubscriptionParams) (*payment.RemoteSubscription, error) {
	updateParams := &stripe.SubscriptionUpdateParams{
		PaymentBehavior: stripe.String(string(types.PaymentBehaviorErrorIfIncomplete)),
	}
	if len(params.Items) > 0 {
		updateParams.Items = lo.Map(params.Items, func(m payment.LineItemMutation, _ int) *stripe.SubscriptionUpdateItemParams {
			return &stripe.SubscriptionUpdateItemParams{
				ID:       stripeOptional(m.ItemID),
				Price:    stripeOptional(m.PriceID),
				Quantity: m.Quantity,
				Deleted:  deletedFlag(m.Deleted),
			}
		})
		updateParams.ProrationBehavior = stripe.String(string(params.ProrationBehavior))
	}
	if params.DefaultPaymentMethodID != nil {
		updateParams.DefaultPaymentMethod = params.DefaultPaymentMethodID
	}

	sub, err := g.client.sc.V1Subscriptions.Update(ctx, providerSubscriptionID, updateParams)
	if err != nil {
		return nil, g.providerError(err, "failed to update subscription on Stripe")
	}

	g.logger.Infow("updated stripe subscription",
		"provider_subscription_id", providerSubscriptionID,
		"item_mutations", len(params.Items),
		"proration_behavior", params.ProrationBehavior,
	)

	return fromStripeSubscription(sub), nil
}

// CreateSubscription creates a brand new Stripe subscription from plan prices
func (g *Gateway) CreateSubscription(ctx context.Context, params payment.CreateSubscriptionParams) (*payment.RemoteSubscription, error) {
	createParams := &stripe.SubscriptionCreateParams{
		Customer:        stripe.String(params.CustomerID),
		PaymentBehavior: stripe.String(string(types.PaymentBehaviorErrorIfIncomplete)),
		Items: lo.Map(params.Items, func(m payment.LineItemMutation, _ int) *stripe.SubscriptionCreateItemParams {
			return &stripe.SubscriptionCreateItemParams{
				Price:    stripeOptional(m.PriceID),
				Quantity: m.Quantity,
			}
		}),
	}
	if params.DefaultPaymentMethodID != nil {
		createParams.DefaultPaymentMethod = params.DefaultPaymentMethodID
	}

	sub, err := g.client.sc.V1Subscriptions.Create(ctx, createParams)
	if err != nil {
		return nil, g.providerError(err, "failed to create subscription on Stripe")
	}

	return fromStripeSubscription(sub), nil
}

// PreviewUpcomingInvoice asks Stripe what the next invoice would total if
// the given item changes were applied now. Amounts come back verbatim; no
// proration math is re-derived on our side.
func (g *Gateway) PreviewUpcomingInvoice(ctx context.Context, params payment.PreviewInvoiceParams) (*payment.InvoicePreview, error) {
	prorationDate := time.Now().UTC()

	previewParams := &stripe.InvoiceCreatePreviewParams{
		Subscription: stripe.String(params.SubscriptionID),
		SubscriptionDetails: &stripe.InvoiceCreatePreviewSubscriptionDetailsParams{
			ProrationBehavior: stripe.String(string(params.ProrationBehavior)),
			ProrationDate:     stripe.Int64(prorationDate.Unix()),
			Items: lo.Map(params.Items, func(m payment.LineItemMutation, _ int) *stripe.InvoiceCreatePreviewSubscriptionDetailsItemParams {
				return &stripe.InvoiceCreatePreviewSubscriptionDetailsItemParams{
					ID:       stripeOptional(m.ItemID),
					Price:    stripeOptional(m.PriceID),
					Quantity: m.Quantity,
					Deleted:  deletedFlag(m.Deleted),
				}
			}),
		},
	}

	inv, err := g.client.sc.V1Invoices.CreatePreview(ctx, previewParams)
	if err != nil {
		if isNotFound(err) {
			// Stripe reports "no upcoming invoice" when nothing billable
			// would change; callers interpret this as a zero-cost quote.
			return &payment.InvoicePreview{ProrationDate: prorationDate}, nil
		}
		return nil, g.providerError(err, "failed to preview upcoming invoice on Stripe")
	}

	return &payment.InvoicePreview{
		SubtotalCents: inv.Subtotal,
		TotalCents:    inv.Total,
		ProrationDate: prorationDate,
	}, nil
}

// CreateCustomer registers a customer with Stripe
func (g *Gateway) CreateCustomer(ctx context.Context, email, name string) (*payment.Customer, error) {
	cust, err := g.client.sc.V1Customers.Create(ctx, &stripe.CustomerCreateParams{
		Email: stripeOptional(email),
		Name:  stripeOptional(name),
	})
	if err != nil {
		return nil, g.providerError(err, "failed to create customer on Stripe")
	}

	return &payment.Customer{
		ID:    cust.ID,
		Email: cust.Email,
		Name:  cust.Name,
	}, nil
}

// AttachSource exchanges a card token for a payment method, attaches it to
// the customer and makes it the default for invoices.
func (g *Gateway) AttachSource(ctx context.Context, customerID, cardToken string) (*payment.Source, error) {
	pm, err := g.client.sc.V1PaymentMethods.Create(ctx, &stripe.PaymentMethodCreateParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCreateCardParams{
			Token: stripe.String(cardToken),
		},
	})
	if err != nil {
		return nil, g.providerError(err, "failed to create payment method on Stripe")
	}

	if _, err := g.client.sc.V1PaymentMethods.Attach(ctx, pm.ID, &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	}); err != nil {
		return nil, g.providerError(err, "failed to attach payment method on Stripe")
	}

	if _, err := g.client.sc.V1Customers.Update(ctx, customerID, &stripe.CustomerUpdateParams{
		InvoiceSettings: &stripe.CustomerUpdateInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(pm.ID),
		},
	}); err != nil {
		return nil, g.providerError(err, "failed to set default payment method on Stripe")
	}

	return &payment.Source{
		ID:         pm.ID,
		CustomerID: customerID,
	}, nil
}

func (g *Gateway) providerError(err error, msg string) error {
	g.logger.Errorw(msg, "error", err)
	return ierr.WithError(err).
		WithHint("The payment provider could not complete the request").
		Mark(ierr.ErrProvider)
}

func fromStripeSubscription(sub *stripe.Subscription) *payment.RemoteSubscription {
	remote := &payment.RemoteSubscription{
		ID:     sub.ID,
		Status: payment.RemoteSubscriptionStatus(sub.Status),
	}
	if sub.Items != nil {
		remote.Items = lo.Map(sub.Items.Data, func(item *stripe.SubscriptionItem, _ int) payment.RemoteLineItem {
			li := payment.RemoteLineItem{
				ID:       item.ID,
				Quantity: item.Quantity,
			}
			if item.Price != nil {
				li.PriceID = item.Price.ID
			}
			return li
		})
	}
	return remote
}

func isNotFound(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode == 404 ||
			stripeErr.Code == stripe.ErrorCodeResourceMissing ||
			stripeErr.Code == stripe.ErrorCodeInvoiceUpcomingNone
	}
	return false
}

func stripeOptional(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}

func deletedFlag(deleted bool) *bool {
	if !deleted {
		return nil
	}
	return stripe.Bool(true)
}
