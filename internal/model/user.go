package model

// User is an authenticated identity. Roles is loaded separately from user_roles.
type User struct {
	Base
	Name     string     `json:"name" db:"name"`
	Username string     `json:"username" db:"username"`
	Email    string     `json:"email" db:"email"`
	Roles    []RoleName `json:"roles" db:"-"`
}

func (u *User) RoleSet() RoleSet {
	return NewRoleSet(u.Roles...)
}

// UserFilter narrows the admin user listing. With Only set, users must hold
// Role and nothing else.
type UserFilter struct {
	Role RoleName `json:"role" form:"role"`
	Only bool     `json:"only" form:"only"`
}

// UserSummary is a row of the admin user listing.
type UserSummary struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	Roles         []RoleName `json:"roles"`
	PatientActive *bool      `json:"patientActive,omitempty"`
	DoctorActive  *bool      `json:"doctorActive,omitempty"`
}
