package models

import "time"

// PasswordOtp is a single issued one-time passcode. OtpHash is the argon2id
// digest of the 6-digit code; the raw code exists only in the delivery
// email. Rows are deleted on successful verification or by the expiry
// sweep, never updated in place.
type PasswordOtp struct {
	ID        string
	UserID    string
	OtpHash   string
	CreatedAt time.Time
	ExpiresAt time.Time
}
