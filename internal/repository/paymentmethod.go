package repository

import (
	"context"
	"database/sql"

	"github.com/atelierhq/atelier/internal/domain/paymentmethod"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/logger"
	"github.com/atelierhq/atelier/internal/postgres"
	"github.com/atelierhq/atelier/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
)

type paymentMethodRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewPaymentMethodRepository(client postgres.IClient, logger *logger.Logger) paymentmethod.Repository {
	return &paymentMethodRepository{client: client, logger: logger}
}

const paymentMethodColumns = `id, team_id, user_id, provider_customer_id, provider_payment_method_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *paymentMethodRepository) Create(ctx context.Context, pm *paymentmethod.PaymentMethod) error {
	query := `INSERT INTO payment_methods (` + paymentMethodColumns + `)
		VALUES (:id, :team_id, :user_id, :provider_customer_id, :provider_payment_method_id,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	query, args, err := sqlx.Named(query, pm)
	if err != nil {
		return ierr.WithError(err).WithHint("Failed to create payment method").Mark(ierr.ErrDatabase)
	}

	q := r.client.Querier(ctx)
	if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create payment method").
			WithReportableDetails(map[string]any{"payment_method_id": pm.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *paymentMethodRepository) Get(ctx context.Context, id string) (*paymentmethod.PaymentMethod, error) {
	var pm paymentmethod.PaymentMethod
	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods
		WHERE id = $1 AND tenant_id = $2 AND status != $3`

	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &pm, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("payment method not found").
				WithHintf("Payment method with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("Failed to get payment method").Mark(ierr.ErrDatabase)
	}
	return &pm, nil
}

func (r *paymentMethodRepository) FindLatestByTeamID(ctx context.Context, teamID string) (*paymentmethod.PaymentMethod, error) {
	var pm paymentmethod.PaymentMethod
	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods
		WHERE team_id = $1 AND tenant_id = $2 AND status = $3
		ORDER BY created_at DESC LIMIT 1`

	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &pm, query, teamID, types.GetTenantID(ctx), types.StatusActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("payment method not found").
				WithHintf("Team %s has no payment method on file", teamID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("Failed to find payment method").Mark(ierr.ErrDatabase)
	}
	return &pm, nil
}
