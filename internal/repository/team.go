package repository

import (
	"context"
	"database/sql"

	"github.com/atelierhq/atelier/internal/domain/team"
	ierr "github.com/atelierhq/atelier/internal/errors"
	"github.com/atelierhq/atelier/internal/logger"
	"github.com/atelierhq/atelier/internal/postgres"
	"github.com/atelierhq/atelier/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
)

type teamRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

func NewTeamRepository(client postgres.IClient, logger *logger.Logger) team.Repository {
	return &teamRepository{client: client, logger: logger}
}

const teamColumns = `id, name, owner_id, tenant_id, status, created_at, updated_at, created_by, updated_by`
const memberColumns = `id, team_id, user_id, role, tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *teamRepository) Get(ctx context.Context, id string) (*team.Team, error) {
	var t team.Team
	query := `SELECT ` + teamColumns + ` FROM teams
		WHERE id = $1 AND tenant_id = $2 AND status != $3`

	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &t, query, id, types.GetTenantID(ctx), types.StatusDeleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.NewError("team not found").
				WithHintf("Team with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).WithHint("Failed to get team").Mark(ierr.ErrDatabase)
	}
	return &t, nil
}

func (r *teamRepository) Create(ctx context.Context, t *team.Team) error {
	query := `INSERT INTO teams (` + teamColumns + `)
		VALUES (:id, :name, :owner_id, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	query, args, err := sqlx.Named(query, t)
	if err != nil {
		return ierr.WithError(err).WithHint("Failed to create team").Mark(ierr.ErrDatabase)
	}

	q := r.client.Querier(ctx)
	if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create team").
			WithReportableDetails(map[string]any{"team_id": t.ID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *teamRepository) ListMembers(ctx context.Context, teamID string) ([]*team.Member, error) {
	var members []*team.Member
	query := `SELECT ` + memberColumns + ` FROM team_members
		WHERE team_id = $1 AND tenant_id = $2 AND status = $3 ORDER BY created_at ASC`

	err := sqlx.SelectContext(ctx, r.client.Querier(ctx), &members, query, teamID, types.GetTenantID(ctx), types.StatusActive)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list team members").
			WithReportableDetails(map[string]any{"team_id": teamID}).
			Mark(ierr.ErrDatabase)
	}
	return members, nil
}

func (r *teamRepository) AddMember(ctx context.Context, m *team.Member) error {
	query := `INSERT INTO team_members (` + memberColumns + `)
		VALUES (:id, :team_id, :user_id, :role, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by)`

	query, args, err := sqlx.Named(query, m)
	if err != nil {
		return ierr.WithError(err).WithHint("Failed to add team member").Mark(ierr.ErrDatabase)
	}

	q := r.client.Querier(ctx)
	if _, err := q.ExecContext(ctx, q.Rebind(query), args...); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to add team member").
			WithReportableDetails(map[string]any{"team_id": m.TeamID, "user_id": m.UserID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *teamRepository) CountBilledSeats(ctx context.Context, teamID string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM team_members
		WHERE team_id = $1 AND tenant_id = $2 AND status = $3 AND role != $4`

	err := sqlx.GetContext(ctx, r.client.Querier(ctx), &count, query,
		teamID, types.GetTenantID(ctx), types.StatusActive, types.TeamRoleViewer)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count billed seats").
			WithReportableDetails(map[string]any{"team_id": teamID}).
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}
