package services

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/dmitrijs2005/credvault/internal/common"
)

var (
	emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneRx = regexp.MustCompile(`^\d{10}$`)
)

func validateUsername(username string) error {
	if len(username) < 3 || len(username) > 20 {
		return fmt.Errorf("%w: username must be 3-20 characters", common.ErrorInvalidArgument)
	}
	return nil
}

func validateEmail(email string) error {
	if !emailRx.MatchString(email) {
		return fmt.Errorf("%w: invalid email", common.ErrorInvalidArgument)
	}
	return nil
}

func validatePhone(phone string) error {
	if !phoneRx.MatchString(phone) {
		return fmt.Errorf("%w: phone must be exactly 10 digits", common.ErrorInvalidArgument)
	}
	return nil
}

// validatePassword enforces the signup password policy: at least 8
// characters with an upper-case letter, a lower-case letter, a digit, and
// a symbol.
func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", common.ErrorInvalidArgument)
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	if !upper || !lower || !digit || !symbol {
		return fmt.Errorf("%w: password must contain upper, lower, digit and symbol characters", common.ErrorInvalidArgument)
	}
	return nil
}
