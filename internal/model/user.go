// Package model defines the data structures used throughout the application.
package model

import "time"

// Role is the access level of a user account.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents an entry in the user directory.
//
// A user owns its activities and reports: deleting the user removes both
// (the foreign keys cascade).
//
// PasswordHash is empty for accounts that can only sign in through GitHub.
// It is tagged json:"-" so it never leaves the server.
type User struct {
	ID           int64     `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"`
	Role         Role      `json:"role"      db:"role"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
