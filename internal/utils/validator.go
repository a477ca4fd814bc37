package utils

import (
	"regexp"
	"strings"
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	usernamePattern = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)
)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func IsValidPassword(password string) bool {
	return len(password) >= 8
}

// IsValidUsername accepts 3 to 30 lowercase letters, digits, dots and underscores.
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

func SanitizeString(input string) string {
	return strings.TrimSpace(input)
}

// NormalizeUsername trims and lowercases a username or email identifier.
func NormalizeUsername(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

func IsValidRating(rating int) bool {
	return rating >= 1 && rating <= 5
}
