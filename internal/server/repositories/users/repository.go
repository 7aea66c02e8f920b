// Package users declares the repository contract for account rows.
package users

import (
	"context"

	"github.com/dmitrijs2005/credvault/internal/server/models"
)

// Repository defines persistence operations for users. All PII fields pass
// through here already encrypted; the repository never sees plaintext.
type Repository interface {
	// Create inserts a new user row. The caller supplies the id.
	Create(ctx context.Context, user *models.User) error

	// GetByID returns the user row for id, or a not-found error.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdatePassword replaces the stored password hash for userID.
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
}
