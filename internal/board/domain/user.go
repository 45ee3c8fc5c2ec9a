package domain

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Email        string // stored lower-cased
	Name         string
	PasswordHash string // argon2id PHC string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail is the single place email identity is canonicalised.
// Invitation matching, login and uniqueness all compare normalised values.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailsMatch compares two addresses case-insensitively.
func EmailsMatch(a, b string) bool {
	return NormalizeEmail(a) == NormalizeEmail(b)
}
