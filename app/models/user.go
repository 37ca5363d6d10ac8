package models

import "reflect"

// Roles a user can carry. Anything absent or unknown on the wire is
// normalised to RoleCustomer before the value enters a store.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
	RoleAdmin    = "admin"
)

// User is the identity record as known to this client. The id and the role
// come from the backend; Attrs is an open bag of profile fields (avatar,
// bio, address) the core never interprets.
type User struct {
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	Email string                 `json:"email"`
	Role  string                 `json:"role,omitempty"`
	Attrs map[string]interface{} `json:"attrs,omitempty"`
}

// WithDefaultRole returns a copy with an empty role defaulted to customer.
// Every path that admits a User into a store goes through this, so a role
// is never empty once an identity is held in memory.
func (u User) WithDefaultRole() User {
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return u
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Equal deep-compares two users, Attrs included. Used to decide whether a
// canonical identity fetched from the backend differs from the cached one.
func (u User) Equal(other User) bool {
	return u.ID == other.ID &&
		u.Name == other.Name &&
		u.Email == other.Email &&
		u.Role == other.Role &&
		reflect.DeepEqual(u.Attrs, other.Attrs)
}
