package payment

import (
	"time"
)

// RemoteSubscriptionStatus mirrors the payment provider's subscription
// status values verbatim.
type RemoteSubscriptionStatus string

const (
	RemoteSubscriptionStatusActive   RemoteSubscriptionStatus = "active"
	RemoteSubscriptionStatusCanceled RemoteSubscriptionStatus = "canceled"
	RemoteSubscriptionStatusPastDue  RemoteSubscriptionStatus = "past_due"
)

// RemoteLineItem is one priced component of the provider's subscription.
// Quantities and price ids are authoritative on the provider side, which is
// why the mirror is always fetched live and never cached.
type RemoteLineItem struct {
	ID       string
	PriceID  string
	Quantity int64
}

// RemoteSubscription is a read model of the provider's current subscription
type RemoteSubscription struct {
	ID     string
	Status RemoteSubscriptionStatus
	Items  []RemoteLineItem
}

// LineItemMutation is one create/update/delete operation against a remote
// subscription's line items.
//
//   - deletion:  ItemID set, Deleted true
//   - update:    ItemID and PriceID set, Quantity set
//   - creation:  PriceID set, Quantity set only for per-seat prices
type LineItemMutation struct {
	ItemID   string `json:"id,omitempty"`
	PriceID  string `json:"price,omitempty"`
	Quantity *int64 `json:"quantity,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
}

// Customer is the provider-side customer record a payment source attaches to
type Customer struct {
	ID    string
	Email string
	Name  string
}

// Source is a chargeable payment source attached to a provider customer
type Source struct {
	ID         string
	CustomerID string
}

// InvoicePreview is the provider's upcoming-invoice quote for a hypothetical
// set of line item changes. Amounts are integer minor-currency units taken
// verbatim from the provider.
type InvoicePreview struct {
	SubtotalCents int64
	TotalCents    int64
	ProrationDate time.Time
}
