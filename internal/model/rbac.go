package model

import (
	"sort"
	"strings"
)

// RoleName is a member of the role vocabulary stored in the roles table.
type RoleName string

const (
	RolePatient RoleName = "PATIENT"
	RoleDoctor  RoleName = "DOCTOR"
	RoleAdmin   RoleName = "ADMIN"
)

// NormalizeRoleName trims and upper-cases a requested role name.
func NormalizeRoleName(s string) RoleName {
	return RoleName(strings.ToUpper(strings.TrimSpace(s)))
}

type Role struct {
	ID          int64    `db:"id" json:"id"`
	Name        RoleName `db:"name" json:"name"`
	Description string   `db:"description" json:"description"`
}

// RoleSet is an unordered set of role names.
type RoleSet map[RoleName]struct{}

func NewRoleSet(names ...RoleName) RoleSet {
	s := make(RoleSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s RoleSet) Has(n RoleName) bool {
	_, ok := s[n]
	return ok
}

func (s RoleSet) Len() int { return len(s) }

// Minus returns the names in s that are not in o.
func (s RoleSet) Minus(o RoleSet) RoleSet {
	out := make(RoleSet)
	for n := range s {
		if !o.Has(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

func (s RoleSet) Equal(o RoleSet) bool {
	return len(s) == len(o) && len(s.Minus(o)) == 0
}

// Names returns the set's members in lexical order.
func (s RoleSet) Names() []RoleName {
	out := make([]RoleName, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s RoleSet) Strings() []string {
	names := s.Names()
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}

// RoleDiff is the change between a user's current and requested roles.
// Added and Removed are disjoint.
type RoleDiff struct {
	Added   RoleSet
	Removed RoleSet
}

func (d RoleDiff) IsEmpty() bool {
	return d.Added.Len() == 0 && d.Removed.Len() == 0
}

// UpdateRolesRequest replaces a user's role set.
type UpdateRolesRequest struct {
	Roles []string `json:"roles" binding:"required"`
}

// RoleChange reports the outcome of a role update.
type RoleChange struct {
	UserID      int64               `json:"userId"`
	Roles       []RoleName          `json:"roles"`
	Added       []RoleName          `json:"added"`
	Removed     []RoleName          `json:"removed"`
	Transitions []ProfileTransition `json:"transitions,omitempty"`
}
