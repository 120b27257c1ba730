// Package validator registers the credential rules used by auth requests.
package validator

import (
	"unicode"

	"github.com/go-playground/validator/v10"

	platformvalidator "crm_backend/platform/validator"
)

// PasswordPolicy describes the password requirements for API error messages
const PasswordPolicy = "Password must be at least 8 characters and contain a letter and a number"

// Register adds the "password" and "username" tags to val.
func Register(val *platformvalidator.Validator) error {
	if err := val.RegisterValidation("password", validatePassword); err != nil {
		return err
	}
	return val.RegisterValidation("username", validateUsername)
}

func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var hasLetter, hasDigit bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

// usernames: 3-32 of letters, digits, '.', '_' or '-'
func validateUsername(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if len(name) < 3 || len(name) > 32 {
		return false
	}
	for _, char := range name {
		if char > unicode.MaxASCII {
			return false
		}
		if unicode.IsLetter(char) || unicode.IsDigit(char) || char == '.' || char == '_' || char == '-' {
			continue
		}
		return false
	}
	return true
}
