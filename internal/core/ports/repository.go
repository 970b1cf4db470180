package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/1345AbhishekKumar/AI-Study-buddy-sub000/internal/core/model"
)

// Repository is the interface for the persistence layer. Uniqueness of
// external_id and email is enforced by the underlying storage; adapters
// surface violations as model.ErrConflict.
type Repository interface {
	// CreateUser durably saves a new user. It returns model.ErrConflict when a
	// user with the same external ID or email already exists.
	CreateUser(ctx context.Context, user *model.User) error

	// GetUserByExternalID returns the user matching the provider subject
	// identifier. It returns model.ErrNotFound when no such user exists.
	GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error)

	// UpdateUser applies the non-zero fields of the patch to the user with the
	// given ID and returns the stored state after the update. It returns
	// model.ErrNotFound when the user does not exist.
	UpdateUser(ctx context.Context, id uuid.UUID, patch UserPatch) (*model.User, error)

	// DeleteUser removes the user matching the provider subject identifier and
	// returns the removed record. It returns model.ErrNotFound when no such
	// user exists.
	DeleteUser(ctx context.Context, externalID string) (*model.User, error)
}

// UserPatch carries the mutable user fields of a partial update. Zero-valued
// fields are left untouched in storage.
type UserPatch struct {
	// Email is the new primary email. Empty means unchanged.
	Email string

	// Name is the new display name. Empty means unchanged.
	Name string

	// ImageURL is the new profile image URL. Empty means unchanged.
	ImageURL string
}

// IsZero reports whether the patch carries no changes.
func (p UserPatch) IsZero() bool {
	return p == UserPatch{}
}
