package service

import (
	"context"
	"time"

	"github.com/atelierhq/atelier/internal/api/dto"
	"github.com/atelierhq/atelier/internal/domain/payment"
	"github.com/atelierhq/atelier/internal/domain/paymentmethod"
	"github.com/atelierhq/atelier/internal/domain/plan"
	"github.com/atelierhq/atelier/internal/domain/price"
	"github.com/atelierhq/atelier/internal/domain/reconciliation"
	"github.com/atelierhq/atelier/internal/domain/subscription"
	"github.com/atelierhq/atelier/internal/domain/team"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/logger"
	"github.com/atelierhq/atelier/internal/postgres"
	"github.com/atelierhq/atelier/internal/types"
	"github.com/samber/lo"
)

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	UpgradeSubscription(ctx context.Context, id string, req dto.UpgradeSubscriptionRequest) (*dto.SubscriptionResponse, error)
	QuoteUpgrade(ctx context.Context, req dto.QuoteUpgradeRequest) (*dto.UpgradeQuoteResponse, error)
	CancelSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
}

type subscriptionService struct {
	client               postgres.IClient
	planRepo             plan.Repository
	priceRepo            price.Repository
	subscriptionRepo     subscription.Repository
	teamRepo             team.Repository
	paymentMethodRepo    paymentmethod.Repository
	paymentMethodService PaymentMethodService
	gateway              payment.Gateway
	logger               *logger.Logger
}

func NewSubscriptionService(
	client postgres.IClient,
	planRepo plan.Repository,
	priceRepo price.Repository,
	subscriptionRepo subscription.Repository,
	teamRepo team.Repository,
	paymentMethodRepo paymentmethod.Repository,
	paymentMethodService PaymentMethodService,
	gateway payment.Gateway,
	logger *logger.Logger,
) SubscriptionService {
	return &subscriptionService{
		client:               client,
		planRepo:             planRepo,
		priceRepo:            priceRepo,
		subscriptionRepo:     subscriptionRepo,
		teamRepo:             teamRepo,
		paymentMethodRepo:    paymentMethodRepo,
		paymentMethodService: paymentMethodService,
		gateway:              gateway,
		logger:               logger,
	}
}

// UpgradeSubscription moves an existing subscription onto a new plan. All
// validation happens before any remote mutation; the payment provider is
// called last, and the internal cancellation of the previous row happens
// before the remote call so a provider failure never leaves two rows
// looking active. A failure after the remote mutation leaves the provider
// ahead of our records; that seam is documented and reconciled manually,
// never rolled back against the provider.
func (s *subscriptionService) UpgradeSubscription(ctx context.Context, id string, req dto.UpgradeSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	newPlan, prices, err := s.loadPlanWithPrices(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	current, err := s.subscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	seatCount, err := s.resolveSeatCount(ctx, current.TeamID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSeatLimit(newPlan, seatCount); err != nil {
		return nil, err
	}

	var result *subscription.Subscription
	err = s.client.WithTx(ctx, func(ctx context.Context) error {
		active, err := s.findActiveForOwnerLocked(ctx, current)
		if err != nil {
			if !ierr.IsNotFound(err) {
				return err
			}
			// Nothing active to upgrade; fall back to the plain creation flow.
			created, err := s.createForOwner(ctx, newPlan, prices, current.UserID, current.TeamID, seatCount, req.CardToken, false)
			if err != nil {
				return err
			}
			result = created
			return nil
		}

		// The path id must name the active row. A cancelled id while some
		// newer row is active means the caller is working from stale state.
		if active.ID != current.ID {
			return ierr.NewError("subscription is not the active subscription").
				WithHint("The subscription was already replaced, use the current one").
				WithReportableDetails(map[string]any{
					"subscription_id":        current.ID,
					"active_subscription_id": active.ID,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		previousPlan, err := s.planRepo.Get(ctx, active.PlanID)
		if err != nil {
			if ierr.IsNotFound(err) {
				// A live subscription must always reference a resolvable
				// plan; this is data corruption, not a client mistake.
				return ierr.NewError("active subscription references a missing plan").
					WithHint("Something went wrong, please contact support").
					WithReportableDetails(map[string]any{
						"subscription_id": active.ID,
						"plan_id":         active.PlanID,
					}).
					Mark(ierr.ErrInternal)
			}
			return err
		}

		if previousPlan.IsPaid() && newPlan.IsFree() {
			return ierr.NewError("downgrade from a paid plan to a free plan is not supported").
				WithHint("Please contact support to downgrade your plan").
				Mark(ierr.ErrInvalidOperation)
		}

		var newPaymentMethod *paymentmethod.PaymentMethod
		if newPlan.IsPaid() && !active.PaymentWaived {
			newPaymentMethod, err = s.ensurePaymentMethod(ctx, active.TeamID, req.CardToken)
			if err != nil {
				return err
			}
		}

		// Cancel the previous internal row before touching the provider, so
		// remote failures never leave two rows looking active.
		now := time.Now().UTC()
		active.Cancel(now)
		active.UpdatedAt = now
		active.UpdatedBy = types.GetUserID(ctx)
		if err := s.subscriptionRepo.Update(ctx, active); err != nil {
			return err
		}

		providerSubscriptionID, err := s.applyRemoteChange(ctx, active, newPlan, prices, seatCount, newPaymentMethod)
		if err != nil {
			return err
		}

		next := &subscription.Subscription{
			ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
			UserID:                 active.UserID,
			TeamID:                 active.TeamID,
			PlanID:                 newPlan.ID,
			ProviderSubscriptionID: providerSubscriptionID,
			PaymentMethodID:        active.PaymentMethodID,
			PaymentWaived:          active.PaymentWaived,
			BaseModel:              types.GetDefaultBaseModel(ctx),
		}
		if newPaymentMethod != nil {
			next.PaymentMethodID = lo.ToPtr(newPaymentMethod.ID)
		}
		if err := s.subscriptionRepo.Create(ctx, next); err != nil {
			return err
		}

		s.logger.Infow("upgraded subscription",
			"previous_subscription_id", active.ID,
			"subscription_id", next.ID,
			"previous_plan_id", previousPlan.ID,
			"plan_id", newPlan.ID,
			"seat_count", seatCount,
		)

		result = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.SubscriptionResponse{Subscription: result}, nil
}

// QuoteUpgrade computes the monetary effect of a plan change before it is
// committed. The provider's billing-period-aware preview is used verbatim;
// this method only decides when to ask and how to interpret "no upcoming
// invoice" as zero.
func (s *subscriptionService) QuoteUpgrade(ctx context.Context, req dto.QuoteUpgradeRequest) (*dto.UpgradeQuoteResponse, error) {
	newPlan, prices, err := s.loadPlanWithPrices(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	// Seat counts are derived, never stored; read immediately before use.
	seatCount, err := s.teamRepo.CountBilledSeats(ctx, req.TeamID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	fullCost := newPlan.CostForSeats(seatCount)

	active, err := s.subscriptionRepo.FindActiveByTeamID(ctx, req.TeamID)
	if err != nil {
		if ierr.IsNotFound(err) {
			// First subscription: the full plan cost is due immediately.
			return dto.NewUpgradeQuoteResponse(fullCost, now), nil
		}
		return nil, err
	}

	previousPlan, err := s.planRepo.Get(ctx, active.PlanID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.NewError("active subscription references a missing plan").
				WithHint("Something went wrong, please contact support").
				WithReportableDetails(map[string]any{
					"subscription_id": active.ID,
					"plan_id":         active.PlanID,
				}).
				Mark(ierr.ErrInternal)
		}
		return nil, err
	}

	// Downgrades to free stop billing without a partial refund; the quote
	// is always zero.
	if previousPlan.IsPaid() && newPlan.IsFree() {
		return dto.NewUpgradeQuoteResponse(0, now), nil
	}

	// A subscription that has never been billed has nothing to prorate.
	if active.ProviderSubscriptionID == nil {
		return dto.NewUpgradeQuoteResponse(fullCost, now), nil
	}

	remote, err := s.gateway.GetSubscription(ctx, *active.ProviderSubscriptionID)
	if err != nil {
		return nil, err
	}

	if remote.Status == payment.RemoteSubscriptionStatusCanceled {
		// Cancelled out-of-band at the provider: stamp the internal record
		// so it stops being treated as active, and quote a fresh start.
		active.Cancel(now)
		active.UpdatedAt = now
		active.UpdatedBy = types.GetUserID(ctx)
		if err := s.subscriptionRepo.Update(ctx, active); err != nil {
			return nil, err
		}
		return dto.NewUpgradeQuoteResponse(fullCost, now), nil
	}

	mutations, err := reconciliation.ComputeMutation(remote.Items, prices, lo.ToPtr(seatCount))
	if err != nil {
		return nil, err
	}

	behavior := resolveProrationBehavior(newPlan, mutations)
	if behavior == types.ProrationBehaviorNone {
		// Nothing billable changes; no invoice would be generated.
		return dto.NewUpgradeQuoteResponse(0, now), nil
	}

	preview, err := s.gateway.PreviewUpcomingInvoice(ctx, payment.PreviewInvoiceParams{
		SubscriptionID:    *active.ProviderSubscriptionID,
		Items:             mutations,
		ProrationBehavior: behavior,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewUpgradeQuoteResponse(preview.TotalCents, preview.ProrationDate), nil
}

// CreateSubscription is the plain creation flow for an owner without an
// active subscription. Paid plans require a card token; free plans are
// recorded internally without contacting the provider.
func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, prices, err := s.loadPlanWithPrices(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	seatCount, err := s.resolveSeatCount(ctx, req.TeamID)
	if err != nil {
		return nil, err
	}
	if err := s.checkSeatLimit(p, seatCount); err != nil {
		return nil, err
	}

	var result *subscription.Subscription
	err = s.client.WithTx(ctx, func(ctx context.Context) error {
		created, err := s.createForOwner(ctx, p, prices, req.UserID, req.TeamID, seatCount, req.CardToken, true)
		if err != nil {
			return err
		}
		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.SubscriptionResponse{Subscription: result}, nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.subscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

// CancelSubscription soft-cancels the internal record. The row is kept
// forever; only the cancellation timestamp changes.
func (s *subscriptionService) CancelSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.subscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sub.Cancel(now)
	sub.UpdatedAt = now
	sub.UpdatedBy = types.GetUserID(ctx)
	if err := s.subscriptionRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Infow("cancelled subscription", "subscription_id", sub.ID)
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

// createForOwner creates the internal row and, for paid plans, the provider
// customer, payment method and remote subscription. Callers hold the
// transaction; checkExisting guards the at-most-one-active invariant.
func (s *subscriptionService) createForOwner(
	ctx context.Context,
	p *plan.Plan,
	prices []*price.PlanPrice,
	userID *string,
	teamID *string,
	seatCount int64,
	cardToken *string,
	checkExisting bool,
) (*subscription.Subscription, error) {
	if checkExisting {
		existing, err := s.findActiveForOwnerLocked(ctx, &subscription.Subscription{UserID: userID, TeamID: teamID})
		if err != nil && !ierr.IsNotFound(err) {
			return nil, err
		}
		if existing != nil {
			return nil, ierr.NewError("an active subscription already exists").
				WithHint("Cancel or upgrade the existing subscription instead").
				WithReportableDetails(map[string]any{"subscription_id": existing.ID}).
				Mark(ierr.ErrAlreadyExists)
		}
	}

	var providerSubscriptionID *string
	var paymentMethodID *string
	if p.IsPaid() {
		pm, err := s.ensurePaymentMethod(ctx, teamID, cardToken)
		if err != nil {
			return nil, err
		}
		paymentMethodID = lo.ToPtr(pm.ID)

		items, err := reconciliation.ComputeMutation(nil, prices, lo.ToPtr(seatCount))
		if err != nil {
			return nil, err
		}

		remote, err := s.gateway.CreateSubscription(ctx, payment.CreateSubscriptionParams{
			CustomerID:             pm.ProviderCustomerID,
			Items:                  items,
			DefaultPaymentMethodID: lo.ToPtr(pm.ProviderPaymentMethodID),
		})
		if err != nil {
			return nil, err
		}
		providerSubscriptionID = lo.ToPtr(remote.ID)
	}

	sub := &subscription.Subscription{
		ID:                     types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		UserID:                 userID,
		TeamID:                 teamID,
		PlanID:                 p.ID,
		ProviderSubscriptionID: providerSubscriptionID,
		PaymentMethodID:        paymentMethodID,
		BaseModel:              types.GetDefaultBaseModel(ctx),
	}
	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Infow("created subscription",
		"subscription_id", sub.ID,
		"plan_id", p.ID,
		"seat_count", seatCount,
		"paid", p.IsPaid(),
	)

	return sub, nil
}

// applyRemoteChange reconciles the provider subscription with the new
// plan's prices. When the previous plan was never billed remotely and the
// new plan is paid, a fresh remote subscription is created instead.
func (s *subscriptionService) applyRemoteChange(
	ctx context.Context,
	active *subscription.Subscription,
	newPlan *plan.Plan,
	prices []*price.PlanPrice,
	seatCount int64,
	newPaymentMethod *paymentmethod.PaymentMethod,
) (*string, error) {
	if active.ProviderSubscriptionID == nil {
		if newPlan.IsFree() {
			return nil, nil
		}
		// Waived owners have no payment method to bill against; the
		// subscription stays internal-only, like the free-plan path.
		if newPaymentMethod == nil {
			return nil, nil
		}

		items, err := reconciliation.ComputeMutation(nil, prices, lo.ToPtr(seatCount))
		if err != nil {
			return nil, err
		}
		remote, err := s.gateway.CreateSubscription(ctx, payment.CreateSubscriptionParams{
			CustomerID:             newPaymentMethod.ProviderCustomerID,
			Items:                  items,
			DefaultPaymentMethodID: lo.ToPtr(newPaymentMethod.ProviderPaymentMethodID),
		})
		if err != nil {
			return nil, err
		}
		return lo.ToPtr(remote.ID), nil
	}

	// The mirror is always fetched live; quantities and price ids are
	// authoritative on the provider side.
	remote, err := s.gateway.GetSubscription(ctx, *active.ProviderSubscriptionID)
	if err != nil {
		return nil, err
	}

	mutations, err := reconciliation.ComputeMutation(remote.Items, prices, lo.ToPtr(seatCount))
	if err != nil {
		return nil, err
	}

	params := payment.UpdateSubscriptionParams{
		Items:             mutations,
		ProrationBehavior: resolveProrationBehavior(newPlan, mutations),
	}
	if newPaymentMethod != nil {
		params.DefaultPaymentMethodID = lo.ToPtr(newPaymentMethod.ProviderPaymentMethodID)
	}

	if _, err := s.gateway.UpdateSubscription(ctx, *active.ProviderSubscriptionID, params); err != nil {
		return nil, err
	}

	// The remote object is mutated in place, never replaced; the new
	// internal row keeps the same external id.
	return active.ProviderSubscriptionID, nil
}

func (s *subscriptionService) ensurePaymentMethod(ctx context.Context, teamID *string, cardToken *string) (*paymentmethod.PaymentMethod, error) {
	if cardToken == nil || *cardToken == "" {
		return nil, ierr.NewError("missing card token").
			WithHint("A card token is required to subscribe to a paid plan").
			Mark(ierr.ErrPaymentRequired)
	}
	if teamID == nil {
		return nil, ierr.NewError("paid plans require a team").
			WithHint("Personal subscriptions cannot be upgraded to paid plans").
			Mark(ierr.ErrInvalidOperation)
	}
	return s.paymentMethodService.CreatePaymentMethodForTeam(ctx, *teamID, *cardToken)
}

func (s *subscriptionService) loadPlanWithPrices(ctx context.Context, planID string) (*plan.Plan, []*price.PlanPrice, error) {
	p, err := s.planRepo.Get(ctx, planID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, nil, ierr.NewError("plan not found").
				WithHint("The plan you are subscribing to does not exist").
				WithReportableDetails(map[string]any{"plan_id": planID}).
				Mark(ierr.ErrNotFound)
		}
		return nil, nil, err
	}

	prices, err := s.priceRepo.ListByPlanID(ctx, p.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(prices) == 0 {
		return nil, nil, ierr.NewError("plan has no prices").
			WithHint("The plan is not configured for billing yet").
			WithReportableDetails(map[string]any{"plan_id": p.ID}).
			Mark(ierr.ErrValidation)
	}

	return p, prices, nil
}

func (s *subscriptionService) findActiveForOwnerLocked(ctx context.Context, sub *subscription.Subscription) (*subscription.Subscription, error) {
	if sub.TeamID != nil {
		return s.subscriptionRepo.FindActiveByTeamIDForUpdate(ctx, *sub.TeamID)
	}
	if sub.UserID != nil {
		return s.subscriptionRepo.FindActiveByUserID(ctx, *sub.UserID)
	}
	return nil, ierr.NewError("subscription has no owner").
		WithHint("Provide either a user id or a team id").
		Mark(ierr.ErrValidation)
}

// resolveSeatCount counts billed seats for the team, or zero when the
// subscription is personal. Always read fresh, never stored.
func (s *subscriptionService) resolveSeatCount(ctx context.Context, teamID *string) (int64, error) {
	if teamID == nil {
		return 0, nil
	}
	return s.teamRepo.CountBilledSeats(ctx, *teamID)
}

func (s *subscriptionService) checkSeatLimit(p *plan.Plan, seatCount int64) error {
	if p.MaximumSeats != nil && seatCount > *p.MaximumSeats {
		return ierr.NewError("team exceeds the plan's seat limit").
			WithHintf("This plan allows at most %d billed seats, the team has %d", *p.MaximumSeats, seatCount).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

// resolveProrationBehavior picks the provider proration behavior for a plan
// change: nothing to change means none, moves onto a free plan accrue
// credit without an immediate charge, and paid plans invoice immediately.
func resolveProrationBehavior(newPlan *plan.Plan, mutations []payment.LineItemMutation) types.ProrationBehavior {
	if len(mutations) == 0 {
		return types.ProrationBehaviorNone
	}
	if newPlan.IsFree() {
		return types.ProrationBehaviorCreateProrations
	}
	return types.ProrationBehaviorAlwaysInvoice
}
