package team

import (
	"github.com/atelierhq/atelier/internal/types"
)

// Team is a group of collaborators sharing one subscription
type Team struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	OwnerID string `db:"owner_id" json:"owner_id"`
	types.BaseModel
}

// Member is a user's membership in a team. Non-viewer members occupy
// billable seats.
type Member struct {
	ID     string         `db:"id" json:"id"`
	TeamID string         `db:"team_id" json:"team_id"`
	UserID string         `db:"user_id" json:"user_id"`
	Role   types.TeamRole `db:"role" json:"role"`
	types.BaseModel
}
