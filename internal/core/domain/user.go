package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder. Each active user owns exactly one wallet,
// created alongside registration. Users are soft-deleted by deactivation.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
