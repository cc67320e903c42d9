package repository

import (
	"context"
	"database/sql"

	"github.com/atelierhq/atelier/internal/domain/plan"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/logger"
	"github.com/atelierhq/atelier/internal/postgres"
	"github.com/atelierhq/atelier/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
)

type planRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPlanRepository(client postgres.IClient, logger *logger.Logger) plan.Repository {
	return &planRepository{client: client, logger: logger}
}

const planColumns = `id, name, lookup_key, description, base_cost_cents, per_seat_cost_cents,
	maximum_seats, billing_interval, tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	query := `INSERT INTO plans (` + planColumns + `)
		VALUES (:id, :name, :lookup_key, :description, :base_cost_cents, :per_seat_cost_cents,
			:maximum_seats, :billing_interval, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	query, args, err := sqlx.Named(query, p)
	if err != nil {
		return ierr.WithError(err).WithHint("Failed to create plan").Mark(ierr.ErrDatabase)
	}

	q := r.client.Querier(ctx)
	if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create plan").
			WithReportableDetails(map[string]any{"plan_id": p.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	var p plan.Plan
	query := `SELECT ` + planColumns + ` FROM plans
		WHERE id = $1 AND tenant_id = $2 AND status != $3`

	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &p, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("plan not found").
				WithHintf("Plan with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("Failed to get plan").Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *planRepository) GetByLookupKey(ctx context.Context, lookupKey string) (*plan.Plan, error) {
	var p plan.Plan
	query := `SELECT ` + planColumns + ` FROM plans
		WHERE lookup_key = $1 AND tenant_id = $2 AND status = $3`

	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &p, query, lookupKey, types.GetTenantID(ctx), types.StatusActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("plan not found").
				WithHintf("Plan with lookup key %s was not found", lookupKey).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("Failed to get plan").Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *planRepository) List(ctx context.Context) ([]*plan.Plan, error) {
	var plans []*plan.Plan
	query := `SELECT ` + planColumns + ` FROM plans
		WHERE tenant_id = $1 AND status = $2 ORDER BY created_at DESC`

	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &plans, query, types.GetTenantID(ctx), types.StatusActive)
	if err != nil {
		return nil, ierr.WithError(err).WithHint("Failed to list plans").Mark(ierr.ErrDatabase)
	}
	return plans, nil
}

func (r *planRepository) Update(ctx context.Context, p *plan.Plan) error {
	query := `UPDATE plans SET name = :name, lookup_key = :lookup_key, description = :description,
		base_cost_cents = :base_cost_cents, per_seat_cost_cents = :per_seat_cost_cents,
		maximum_seats = :maximum_seats, billing_interval = :billing_interval,
		status = :status, updated_at = :updated_at, updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id`

	query, args, err := sqlx.Named(query, p)
	if err != nil {
		return ierr.WithError(err).WithHint("Failed to update plan").Mark(ierr.ErrDatabase)
	}

	q := r.client.Querier(ctx)
	if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update plan").
			WithReportableDetails(map[string]any{"plan_id": p.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}
