package role

import "github.com/jwalitptl/meditracker-api/internal/model"

// DiffRoles returns what must be added to and removed from current to reach
// requested. Added and Removed are always disjoint, and DiffRoles(r, r) is empty.
func DiffRoles(current, requested model.RoleSet) model.RoleDiff {
	return model.RoleDiff{
		Added:   requested.Minus(current),
		Removed: current.Minus(requested),
	}
}
