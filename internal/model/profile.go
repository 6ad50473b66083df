package model

import "fmt"

// ProfileKind names a role-specific profile.
type ProfileKind string

const (
	ProfilePatient ProfileKind = "patient"
	ProfileDoctor  ProfileKind = "doctor"
)

// ProfileState is the lifecycle state of one profile kind for one user.
// Once a profile exists it never returns to ProfileAbsent.
type ProfileState int

const (
	ProfileAbsent ProfileState = iota
	ProfileActive
	ProfileInactive
)

func ProfileStateOf(exists, active bool) ProfileState {
	switch {
	case !exists:
		return ProfileAbsent
	case active:
		return ProfileActive
	default:
		return ProfileInactive
	}
}

func (s ProfileState) String() string {
	switch s {
	case ProfileAbsent:
		return "absent"
	case ProfileActive:
		return "active"
	case ProfileInactive:
		return "inactive"
	}
	return fmt.Sprintf("ProfileState(%d)", int(s))
}

// TransitionAction is the write a reconcile step performs on a profile.
type TransitionAction string

const (
	ActionNone       TransitionAction = ""
	ActionCreate     TransitionAction = "created"
	ActionReactivate TransitionAction = "reactivated"
	ActionDeactivate TransitionAction = "deactivated"
)

// ProfileTransition records one applied state change.
type ProfileTransition struct {
	Kind   ProfileKind      `json:"kind"`
	From   string           `json:"from"`
	To     string           `json:"to"`
	Action TransitionAction `json:"action"`
}

// ProfileView is the caller's own profile page.
type ProfileView struct {
	User    *User    `json:"user"`
	Roles   []string `json:"roles"`
	Patient *Patient `json:"patient,omitempty"`
	Doctor  *Doctor  `json:"doctor,omitempty"`
}
