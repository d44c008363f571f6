// Package models defines data transferred between the backend API and the
// client core.
package models

// User is the read-only profile projection returned by the backend.
// It is never mutated locally, only replaced wholesale.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	AvatarRef string `json:"avatarRef"`
}
