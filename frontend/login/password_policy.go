package login

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

const minPasswordLength = 10

// ValidatePasswordPolicy requires at least ten characters with a letter and
// a digit.
func ValidatePasswordPolicy(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return errors.New("password must be at least 10 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must include a letter and a digit")
	}
	return nil
}
