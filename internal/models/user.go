package models

import (
	"time"
)

type User struct {
	ID           string    `gorm:"primaryKey"                json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"      json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"      json:"email"`
	PasswordHash string    `                                 json:"-"`
	Role         string    `gorm:"not null;default:'user'"   json:"role"` // "admin" or "user"
	FullName     string    `                                 json:"full_name,omitempty"`
	CreatedAt    time.Time `                                 json:"created_at"`
	UpdatedAt    time.Time `                                 json:"updated_at"`
}

// IsAdmin returns true if the user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
