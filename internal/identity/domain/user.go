package domain

import (
	"time"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
)

// User is a registered vendor or supplier. PasswordHash never leaves the
// identity context.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Address      string
	Role         access.Role
	GSTNumber    string
	BusinessName string
	Active       bool
	CreatedAt    time.Time
}

func (u User) Principal() access.Principal {
	return access.Principal{UserID: u.ID, Role: u.Role}
}
