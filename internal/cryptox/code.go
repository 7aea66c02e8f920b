package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OtpCodeLength is the number of digits in a one-time passcode.
const OtpCodeLength = 6

// GenerateOtpCode returns a random numeric code of OtpCodeLength digits,
// zero-padded, drawn from crypto/rand.
func GenerateOtpCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < OtpCodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("otp generation: %w", err)
	}

	return fmt.Sprintf("%0*d", OtpCodeLength, n), nil
}
