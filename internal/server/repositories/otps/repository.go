// Package otps declares the repository contract for one-time passcode rows.
package otps

import (
	"context"
	"time"

	"github.com/dmitrijs2005/credvault/internal/server/models"
)

// Repository defines persistence operations for OTP rows. Rows are only
// ever created and deleted; nothing updates them in place.
type Repository interface {
	// Create inserts a new OTP row. The caller supplies the id and both
	// timestamps.
	Create(ctx context.Context, otp *models.PasswordOtp) error

	// FindLatest returns the most recently created OTP row for userID
	// (newest created_at wins), or a not-found error.
	FindLatest(ctx context.Context, userID string) (*models.PasswordOtp, error)

	// DeleteByID removes a single row by id and reports how many rows went
	// away. Zero with a nil error means another call already consumed it.
	DeleteByID(ctx context.Context, id string) (int64, error)

	// DeleteAllForUser removes every OTP row belonging to userID.
	DeleteAllForUser(ctx context.Context, userID string) error

	// DeleteExpired removes all rows across all users whose expiry is
	// before the given instant and returns the count.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
