package auth

import (
	"regexp"
	"unicode"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail reports whether email looks like a deliverable address.
func ValidateEmail(email string) bool {
	return len(email) < 255 && emailRegex.MatchString(email)
}

// ValidatePassword checks length bounds and character variety. The upper
// bound exists because bcrypt truncates input at 72 bytes.
func ValidatePassword(password string) bool {
	if len(password) < 8 || len(password) > 72 {
		return false
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsNumber(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	// At least 3 of the 4 character classes must appear
	classes := 0
	for _, present := range []bool{upper, lower, digit, special} {
		if present {
			classes++
		}
	}
	return classes >= 3
}

// GetPasswordRequirements describes the password policy in a form
// suitable for returning to clients alongside a rejection.
func GetPasswordRequirements() []string {
	return []string{
		"At least 8 characters long",
		"Maximum 72 characters",
		"Must contain at least 3 of the following:",
		"- Uppercase letters (A-Z)",
		"- Lowercase letters (a-z)",
		"- Numbers (0-9)",
		"- Special characters (!@#$%^&*...)",
	}
}
