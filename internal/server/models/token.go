package models

// Token carries the deterministic lookup tokens for one user. The tokens
// are derived from the raw identifiers at write time, not from the
// encrypted fields, so lookups never need decryption. EmailToken is
// required and unique; PhoneToken is optional and unique when present.
// Token rows are immutable after signup.
type Token struct {
	UserID     string
	EmailToken string
	PhoneToken string
}
