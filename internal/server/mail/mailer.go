// Package mail defines the outbound mail contract used by the OTP flow and
// an SMTP implementation of it.
package mail

import "context"

// Mailer delivers a plain-text message. Implementations must not retry
// internally; the OTP manager treats a send failure as issuance failure.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
