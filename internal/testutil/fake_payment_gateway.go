package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/atelierhq/atelier/internal/domain/payment"
	ierr "github.com/atelierhq/atelier/internal/errors"
)

var _ payment.Gateway = (*FakePaymentGateway)(nil)

// GatewayCall records one call made against the fake gateway
type GatewayCall struct {
	Method         string
	SubscriptionID string
	Update         payment.UpdateSubscriptionParams
	Create         payment.CreateSubscriptionParams
	Preview        payment.PreviewInvoiceParams
}

// FakePaymentGateway is a scriptable payment.Gateway for service tests. It
// keeps remote subscriptions in memory, applies item mutations to them the
// way the provider would, and records every call so tests can assert on
// what was (and was not) sent.
type FakePaymentGateway struct {
	mu            sync.Mutex
	subscriptions map[string]*payment.RemoteSubscription
	previewTotal  int64
	previewDate   time.Time
	failNext      error
	seq           int

	Calls []GatewayCall
}

// NewFakePaymentGateway creates a new fake gateway
func NewFakePaymentGateway() *FakePaymentGateway {
	return &FakePaymentGateway{
		subscriptions: make(map[string]*payment.RemoteSubscription),
		previewDate:   time.Now().UTC(),
	}
}

// SeedSubscription registers a remote subscription the tests pretend already
// exists at the provider
func (g *FakePaymentGateway) SeedSubscription(sub *payment.RemoteSubscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subscriptions[sub.ID] = sub
}

// SetPreviewTotal scripts the total returned by PreviewUpcomingInvoice
func (g *FakePaymentGateway) SetPreviewTotal(cents int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.previewTotal = cents
}

// FailNext makes the next gateway call return err
func (g *FakePaymentGateway) FailNext(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failNext = err
}

// CallsTo returns the recorded calls for one method
func (g *FakePaymentGateway) CallsTo(method string) []GatewayCall {
	g.mu.Lock()
	defer g.mu.Unlock()

	var result []GatewayCall
	for _, c := range g.Calls {
		if c.Method == method {
			result = append(result, c)
		}
	}
	return result
}

// Clear resets subscriptions, scripted responses and recorded calls
func (g *FakePaymentGateway) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subscriptions = make(map[string]*payment.RemoteSubscription)
	g.previewTotal = 0
	g.previewDate = time.Now().UTC()
	g.failNext = nil
	g.Calls = nil
}

func (g *FakePaymentGateway) GetSubscription(ctx context.Context, providerSubscriptionID string) (*payment.RemoteSubscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.takeFailure(); err != nil {
		return nil, err
	}
	g.Calls = append(g.Calls, GatewayCall{Method: "GetSubscription", SubscriptionID: providerSubscriptionID})

	sub, ok := g.subscriptions[providerSubscriptionID]
	if !ok {
		return nil, ierr.NewError("remote subscription not found").
			WithReportableDetails(map[string]any{"provider_subscription_id": providerSubscriptionID}).
			Mark(ierr.ErrInternal)
	}
	return copyRemote(sub), nil
}

func (g *FakePaymentGateway) UpdateSubscription(ctx context.Context, providerSubscriptionID string, params payment.UpdateSubscriptionParams) (*payment.RemoteSubscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.takeFailure(); err != nil {
		return nil, err
	}
	g.Calls = append(g.Calls, GatewayCall{Method: "UpdateSubscription", SubscriptionID: providerSubscriptionID, Update: params})

	sub, ok := g.subscriptions[providerSubscriptionID]
	if !ok {
		return nil, ierr.NewError("remote subscription not found").
			WithReportableDetails(map[string]any{"provider_subscription_id": providerSubscriptionID}).
			Mark(ierr.ErrProvider)
	}

	sub.Items = g.applyMutations(sub.Items, params.Items)
	return copyRemote(sub), nil
}

func (g *FakePaymentGateway) CreateSubscription(ctx context.Context, params payment.CreateSubscriptionParams) (*payment.RemoteSubscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.takeFailure(); err != nil {
		return nil, err
	}
	g.Calls = append(g.Calls, GatewayCall{Method: "CreateSubscription", Create: params})

	sub := &payment.RemoteSubscription{
		ID:     g.nextID("sub"),
		Status: payment.RemoteSubscriptionStatusActive,
		Items:  g.applyMutations(nil, params.Items),
	}
	g.subscriptions[sub.ID] = sub
	return copyRemote(sub), nil
}

func (g *FakePaymentGateway) PreviewUpcomingInvoice(ctx context.Context, params payment.PreviewInvoiceParams) (*payment.InvoicePreview, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.takeFailure(); err != nil {
		return nil, err
	}
	g.Calls = append(g.Calls, GatewayCall{Method: "PreviewUpcomingInvoice", SubscriptionID: params.SubscriptionID, Preview: params})

	return &payment.InvoicePreview{
		SubtotalCents: g.previewTotal,
		TotalCents:    g.previewTotal,
		ProrationDate: g.previewDate,
	}, nil
}

func (g *FakePaymentGateway) CreateCustomer(ctx context.Context, email, name string) (*payment.Customer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.takeFailure(); err != nil {
		return nil, err
	}
	g.Calls = append(g.Calls, GatewayCall{Method: "CreateCustomer"})

	return &payment.Customer{ID: g.nextID("cus"), Email: email, Name: name}, nil
}

func (g *FakePaymentGateway) AttachSource(ctx context.Context, customerID, cardToken string) (*payment.Source, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.takeFailure(); err != nil {
		return nil, err
	}
	g.Calls = append(g.Calls, GatewayCall{Method: "AttachSource"})

	return &payment.Source{ID: g.nextID("pm"), CustomerID: customerID}, nil
}

// applyMutations mirrors the provider's item semantics: deletions remove by
// item id, updates change the matched item, creations append with a fresh
// item id.
func (g *FakePaymentGateway) applyMutations(items []payment.RemoteLineItem, mutations []payment.LineItemMutation) []payment.RemoteLineItem {
	for _, m := range mutations {
		switch {
		case m.Deleted:
			for i, it := range items {
				if it.ID == m.ItemID {
					items = append(items[:i], items[i+1:]...)
					break
				}
			}
		case m.ItemID != "":
			for i := range items {
				if items[i].ID == m.ItemID {
					items[i].PriceID = m.PriceID
					if m.Quantity != nil {
						items[i].Quantity = *m.Quantity
					}
					break
				}
			}
		default:
			item := payment.RemoteLineItem{ID: g.nextID("si"), PriceID: m.PriceID, Quantity: 1}
			if m.Quantity != nil {
				item.Quantity = *m.Quantity
			}
			items = append(items, item)
		}
	}
	return items
}

func (g *FakePaymentGateway) takeFailure() error {
	if g.failNext != nil {
		err := g.failNext
		g.failNext = nil
		return err
	}
	return nil
}

func (g *FakePaymentGateway) nextID(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_fake_%d", prefix, g.seq)
}

func copyRemote(sub *payment.RemoteSubscription) *payment.RemoteSubscription {
	out := &payment.RemoteSubscription{ID: sub.ID, Status: sub.Status}
	out.Items = append(out.Items, sub.Items...)
	return out
}
