package auth

import (
	"time"

	"github.com/google/uuid"
)

// LoginRequest carries back-office credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AdminSummary is the signed-in admin as returned to the client.
type AdminSummary struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// LoginResponse carries the bearer token for subsequent admin calls.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Admin     AdminSummary `json:"admin"`
}
