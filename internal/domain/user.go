package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayName is "First Last" with blanks collapsed, or the username when both are empty.
func (u *User) DisplayName() string {
	name := strings.Join(strings.Fields(u.FirstName+" "+u.LastName), " ")
	if name == "" {
		return u.Username
	}
	return name
}

// Identity is the verified caller extracted from a bearer token.
type Identity struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
}

// AdminSummary is the public view of an admin a requester may address.
type AdminSummary struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
}
