// Package validation checks account fields supplied at signup.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minPasswordLength = 12
	maxPasswordLength = 128
	maxEmailLength    = 254
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{1,28}[A-Za-z0-9]$`)
	emailRegex    = regexp.MustCompile(`^[^\s@]{1,64}@[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)+$`)
)

// ValidateUsername requires 3-30 letters, digits, dashes or underscores,
// starting and ending with a letter or digit.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-30 characters of letters, numbers, '-' or '_' and start and end with a letter or number")
	}
	return nil
}

// ValidateEmail performs a structural check of an address.
func ValidateEmail(email string) error {
	if len(email) > maxEmailLength || !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidatePassword enforces length and character class rules.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength || n > maxPasswordLength {
		return fmt.Errorf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return fmt.Errorf("password must contain upper and lower case letters, a number and a special character")
	}
	return nil
}

// NormalizeName trims a display name part.
func NormalizeName(s string) string {
	return strings.TrimSpace(s)
}
