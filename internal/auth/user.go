// Package auth implements user identity: registration, password login,
// stateless JWT sessions and account scope switching.
package auth

import (
	"context"
	"time"
)

// User is a registered person. The password hash never leaves the
// service layer.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone_number,omitempty"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserStore is the persistence surface for users. CreateUser returns a
// conflict error when the email is already registered.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	UserByID(ctx context.Context, id string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
}
