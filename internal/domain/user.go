package domain

import (
	"context"
	"time"
)

// User represents a registered user. Accounts are managed elsewhere; this
// subsystem only needs to resolve IDs to users for validation and email.
// swagger:model User
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRepository defines the read-only interface for user storage.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
}
