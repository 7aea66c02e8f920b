package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters. Deliberately expensive: 64 MiB memory, three
// passes, four lanes. These are encoded into every produced hash, so they
// can be raised later without invalidating stored credentials.
const (
	argonMemory  uint32 = 64 * 1024
	argonTime    uint32 = 3
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

// PasswordHasher produces and verifies argon2id digests in PHC string
// format:
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt_b64>$<hash_b64>
//
// The same primitive is used for account passwords and OTP codes; OTP
// codes are never stored or compared in plaintext. The zero value is ready
// to use and safe for concurrent use.
type PasswordHasher struct{}

// Hash derives an argon2id digest of secret under a fresh random salt.
func (PasswordHasher) Hash(secret string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt generation: %w", err)
	}

	key := argon2.IDKey([]byte(secret), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether candidate matches the PHC-encoded digest. Cost
// parameters are read back from the digest itself, and the comparison is
// constant-time.
func (PasswordHasher) Verify(digest, candidate string) (bool, error) {
	var (
		version          int
		memory, time     uint32
		threads          uint8
		saltB64, hashB64 string
	)

	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false, fmt.Errorf("malformed argon2id digest")
	}
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("malformed argon2id version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("malformed argon2id parameters: %w", err)
	}
	saltB64, hashB64 = parts[4], parts[5]

	salt, err := base64.RawStdEncoding.DecodeString(saltB64)
	if err != nil {
		return false, fmt.Errorf("malformed argon2id salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(hashB64)
	if err != nil {
		return false, fmt.Errorf("malformed argon2id hash: %w", err)
	}

	computed := argon2.IDKey([]byte(candidate), salt, time, memory, threads, uint32(len(hash)))

	return subtle.ConstantTimeCompare(computed, hash) == 1, nil
}
