// Package models defines the persistent records of the credential store.
package models

import "time"

// User is an account row. Username, Email, and Phone hold cipher envelopes
// ("ivHex:cipherHex"), never plaintext. PasswordHash is an argon2id PHC
// string. ID is server-generated and immutable.
type User struct {
	ID           string
	Username     string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
}
