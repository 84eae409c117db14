package model

import (
	"errors"
	"time"
	"unicode"
	"unicode/utf8"
)

// User represents an authentication user.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleCustomer = "customer"
)

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin:    3,
		RoleManager:  2,
		RoleCustomer: 1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleManager || role == RoleCustomer
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// MaxUsernameLength is the longest accepted username.
const MaxUsernameLength = 150

// ValidatePassword checks the password policy.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// ValidateUsername allows letters, digits and @/./+/-/_ only.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return errors.New("username must be at most 150 characters")
	}
	for _, r := range username {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case '@', '.', '+', '-', '_':
			continue
		}
		return errors.New("username may contain only letters, digits and @/./+/-/_")
	}
	return nil
}
