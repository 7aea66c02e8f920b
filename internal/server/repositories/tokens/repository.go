// Package tokens declares the repository contract for lookup-token rows.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/credvault/internal/server/models"
)

// Repository defines persistence operations for lookup tokens. Rows are
// created once at signup and never updated.
type Repository interface {
	// Create inserts the token row for a new user. A duplicate email or
	// phone token yields common.ErrorAlreadyExists.
	Create(ctx context.Context, token *models.Token) error

	// FindByEmailToken returns the row whose email token equals emailToken,
	// or a not-found error. Used by login.
	FindByEmailToken(ctx context.Context, emailToken string) (*models.Token, error)

	// FindByAnyToken returns a row matching emailToken OR phoneToken
	// (empty arguments are skipped), or a not-found error. Used by the
	// signup taken-check.
	FindByAnyToken(ctx context.Context, emailToken, phoneToken string) (*models.Token, error)
}
