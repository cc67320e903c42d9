package types

// TeamRole is the role of a member within a team
type TeamRole string

const (
	TeamRoleOwner  TeamRole = "OWNER"
	TeamRoleAdmin  TeamRole = "ADMIN"
	TeamRoleEditor TeamRole = "EDITOR"
	TeamRoleViewer TeamRole = "VIEWER"
)

func (r TeamRole) Validate() bool {
	switch r {
	case TeamRoleOwner, TeamRoleAdmin, TeamRoleEditor, TeamRoleViewer:
		return true
	}
	return false
}

// IsBilled reports whether a member with this role occupies a billable seat.
// Viewers are free; everyone else counts towards per-seat pricing.
func (r TeamRole) IsBilled() bool {
	return r != TeamRoleViewer
}
