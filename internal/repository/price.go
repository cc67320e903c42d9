package repository

import (
	"context"
	"database/sql"

	"github.com/atelierhq/atelier/internal/domain/price"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/logger"
	"github.com/atelierhq/atelier/internal/postgres"
	"github.com/atelierhq/atelier/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
)

type priceRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPriceRepository(client postgres.IClient, logger *logger.Logger) price.Repository {
	return &priceRepository{client: client, logger: logger}
}

const priceColumns = `id, plan_id, provider_price_id, kind, tenant_id, status, created_at, updated_at, created_by, updated_by`

const priceInsertQuery = `INSERT INTO plan_prices (` + priceColumns + `)
	VALUES (:id, :plan_id, :provider_price_id, :kind, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

func (r *priceRepository) Create(ctx context.Context, p *price.PlanPrice) error {
	query, args, err := sqlx.Named(priceInsertQuery, p)
	if err != nil {
		return ierr.WithError(err).WithHint("Failed to create price").Mark(ierr.ErrDatabase)
	}

	q := r.client.Querier(ctx)
	if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create price").
			WithReportableDetails(map[string]any{"price_id": p.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *priceRepository) CreateBulk(ctx context.Context, prices []*price.PlanPrice) error {
	for _, p := range prices {
		if err := r.Create(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *priceRepository) Get(ctx context.Context, id string) (*price.PlanPrice, error) {
	var p price.PlanPrice
	query := `SELECT ` + priceColumns + ` FROM plan_prices
		WHERE id = $1 AND tenant_id = $2 AND status != $3`

	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &p, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("price not found").
				WithHintf("Price with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("Failed to get price").Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *priceRepository) ListByPlanID(ctx context.Context, planID string) ([]*price.PlanPrice, error) {
	var prices []*price.PlanPrice
	query := `SELECT ` + priceColumns + ` FROM plan_prices
		WHERE plan_id = $1 AND tenant_id = $2 AND status = $3 ORDER BY created_at ASC`

	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &prices, query, planID, types.GetTenantID(ctx), types.StatusActive)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plan prices").
			WithReportableDetails(map[string]any{"plan_id": planID}).
			Mark(ierr.ErrDatabase)
	}
	return prices, nil
}
