// Package cryptox implements the cryptographic primitives of credvault:
// deterministic lookup tokens for encrypted identifiers, the reversible
// AES-CBC cipher for PII fields, and the argon2id hasher used for both
// account passwords and one-time passcodes.
package cryptox

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/common"
)

// Tokenizer derives deterministic lookup tokens from raw identifiers
// (email, phone). Tokens are used only for equality search against the
// tokens table; they are never decrypted and never derived from ciphertext.
//
// The salt is process-wide configuration. Given the same salt, Tokenize
// produces identical output across calls and process restarts, so existing
// token rows stay queryable.
type Tokenizer struct {
	salt []byte
}

// NewTokenizer constructs a Tokenizer with the given salt. An empty salt is
// rejected with common.ErrorConfiguration: running without one would make
// every token trivially precomputable.
func NewTokenizer(salt string) (*Tokenizer, error) {
	if salt == "" {
		return nil, fmt.Errorf("%w: token salt is not set", common.ErrorConfiguration)
	}
	return &Tokenizer{salt: []byte(salt)}, nil
}

// Tokenize returns hex(sha256(raw || salt)).
func (t *Tokenizer) Tokenize(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	h.Write(t.salt)
	return hex.EncodeToString(h.Sum(nil))
}
