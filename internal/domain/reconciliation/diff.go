// Package reconciliation computes the minimal set of line item mutations
// needed to move a remote subscription from its current price set to a
// target plan's price set.
package reconciliation

import (
	"github.com/atelierhq/atelier/internal/domain/payment"
	"github.com/atelierhq/atelier/internal/domain/price"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/types"
)

// ComputeMutation diffs the remote line items against the target plan's
// prices for the given seat count and returns the line item mutations to
// apply, deletions first. The result is deterministic for identical input,
// and empty when the target price set and quantities already match the
// remote state exactly; callers use the empty result to skip the provider
// mutation and treat the operation as a payment-source-only update.
func ComputeMutation(remoteItems []payment.RemoteLineItem, targetPrices []*price.PlanPrice, seatCount *int64) ([]payment.LineItemMutation, error) {
	targetPriceIDs := make(map[string]struct{}, len(targetPrices))
	for _, p := range targetPrices {
		targetPriceIDs[p.ProviderPriceID] = struct{}{}
	}

	// Every remote item priced outside the target plan gets its own
	// deletion; stale legacy items are removed one by one.
	deletions := make([]payment.LineItemMutation, 0, len(remoteItems))
	remoteByPriceID := make(map[string]payment.RemoteLineItem, len(remoteItems))
	for _, item := range remoteItems {
		remoteByPriceID[item.PriceID] = item
		if _, ok := targetPriceIDs[item.PriceID]; !ok {
			deletions = append(deletions, payment.LineItemMutation{
				ItemID:  item.ID,
				Deleted: true,
			})
		}
	}

	changes := make([]payment.LineItemMutation, 0, len(targetPrices))
	for _, target := range targetPrices {
		perSeat := target.Kind == types.PriceKindPerSeat
		if perSeat && seatCount == nil {
			return nil, ierr.NewError("per-seat price requires a seat count").
				WithHint("A seat count is required to subscribe to a plan with per-seat pricing").
				WithReportableDetails(map[string]any{
					"price_id": target.ProviderPriceID,
				}).
				Mark(ierr.ErrValidation)
		}

		existing, exists := remoteByPriceID[target.ProviderPriceID]
		if exists {
			if !perSeat {
				// Flat price already on the subscription, nothing to change.
				continue
			}
			if existing.Quantity == *seatCount {
				continue
			}
			quantity := *seatCount
			changes = append(changes, payment.LineItemMutation{
				ItemID:   existing.ID,
				PriceID:  target.ProviderPriceID,
				Quantity: &quantity,
			})
			continue
		}

		mutation := payment.LineItemMutation{PriceID: target.ProviderPriceID}
		if perSeat {
			quantity := *seatCount
			mutation.Quantity = &quantity
		}
		changes = append(changes, mutation)
	}

	return append(deletions, changes...), nil
}
