package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents an application user kept in sync with the identity provider.
type User struct {
	// ID unique identifier of the user, owned by the repository.
	ID uuid.UUID `json:"id"`

	// ExternalID is the identity provider's immutable subject identifier.
	ExternalID string `json:"external_id"`

	// Email is the user primary email.
	Email string `json:"email"`

	// Name is the derived display name.
	Name string `json:"name"`

	// ImageURL is the user profile image URL, if any.
	ImageURL string `json:"image_url,omitempty"`

	// Role is the application role, set at creation time.
	Role string `json:"role"`

	// Status is the account status, set at creation time.
	Status string `json:"status"`

	// CreatedAt is the time at which the user was created in the system.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the time at which the user was last updated.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// WelcomeEmail is the notification task queued after a successful user creation.
type WelcomeEmail struct {
	// To is the recipient address.
	To string `json:"to"`

	// Name is the recipient display name used in the greeting.
	Name string `json:"name"`
}
