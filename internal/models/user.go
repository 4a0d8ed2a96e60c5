package models

import "time"

// Roles assignable to a user. The email address is the login identifier;
// there is no separate username.
const (
	RoleClient = "client"
	RoleAdmin  = "admin"
)

type User struct {
	ID        uint   `gorm:"primaryKey"`
	Email     string `gorm:"unique;not null;index"`
	Password  string `gorm:"not null"` // hash bcrypt
	Role      string `gorm:"not null;default:'client'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the user may write to the catalog.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
