package models

// UserRole is the role carried in operator access tokens.
type UserRole string

const (
	RoleAdmin  UserRole = "ADMIN"
	RoleEditor UserRole = "EDITOR"
	RoleViewer UserRole = "VIEWER"
)

// CanWrite reports whether the role may change the contact store.
func (r UserRole) CanWrite() bool {
	return r == RoleAdmin || r == RoleEditor
}
