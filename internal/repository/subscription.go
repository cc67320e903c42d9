package repository

import (
	"context"
	"database/sql"

	"github.com/atelierhq/atelier/internal/domain/subscription"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/logger"
	"github.com/atelierhq/atelier/internal/postgres"
	"github.com/atelierhq/atelier/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
)

type subscriptionRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{client: client, logger: logger}
}

const subscriptionColumns = `id, user_id, team_id, plan_id, provider_subscription_id, payment_method_id,
	cancelled_at, payment_waived, tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *subscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES (:id, :user_id, :team_id, :plan_id, :provider_subscription_id, :payment_method_id,
			:cancelled_at, :payment_waived, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	query, args, err := sqlx.Named(query, sub)
	if err != nil {
		return ierr.WithError(err).WithHint("Failed to create subscription").Mark(ierr.ErrDatabase)
	}

	q := r.client.Querier(ctx)
	if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE id = $1 AND tenant_id = $2 AND status != $3`

	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &sub, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("subscription not found").
				WithHintf("Subscription with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("Failed to get subscription").Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	query := `UPDATE subscriptions SET plan_id = :plan_id,
		provider_subscription_id = :provider_subscription_id,
		payment_method_id = :payment_method_id, cancelled_at = :cancelled_at,
		payment_waived = :payment_waived, status = :status,
		updated_at = :updated_at, updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	query, args, err := sqlx.Named(query, sub)
	if err != nil {
		return ierr.WithError(err).WithHint("Failed to update subscription").Mark(ierr.ErrDatabase)
	}

	q := r.client.Querier(ctx)
	if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			WithReportableDetails(map[string]any{"subscription_id": sub.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) FindActiveByTeamID(ctx context.Context, teamID string) (*subscription.Subscription, error) {
	return r.findActiveByTeamID(ctx, teamID, false)
}

func (r *subscriptionRepository) FindActiveByTeamIDForUpdate(ctx context.Context, teamID string) (*subscription.Subscription, error) {
	return r.findActiveByTeamID(ctx, teamID, true)
}

func (r *subscriptionRepository) findActiveByTeamID(ctx context.Context, teamID string, forUpdate bool) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE team_id = $1 AND tenant_id = $2 AND status != $3
		AND (cancelled_at IS NULL OR cancelled_at > NOW())
		ORDER BY created_at DESC LIMIT 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &sub, query, teamID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("no active subscription").
				WithHintf("Team %s has no active subscription", teamID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("Failed to find active subscription").Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}

func (r *subscriptionRepository) FindActiveByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	var sub subscription.Subscription
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE user_id = $1 AND tenant_id = $2 AND status != $3
		AND (cancelled_at IS NULL OR cancelled_at > NOW())
		ORDER BY created_at DESC LIMIT 1`

	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &sub, query, userID, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("no active subscription").
				WithHintf("User %s has no active subscription", userID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("Failed to find active subscription").Mark(ierr.ErrDatabase)
	}
	return &sub, nil
}
