package service

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
)

const (
	reasonRequired = "is required"
	reasonEmail    = "must be a valid email address"
	reasonPassword = "must contain at least one uppercase letter, one lowercase letter, and one number"

	maxPasswordLen = 128
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateEmail(errs map[string]string, field, email string) {
	switch {
	case email == "":
		errs[field] = reasonRequired
	case !isEmail(email):
		errs[field] = reasonEmail
	}
}

// isEmail accepts a bare address only: no display name, no angle brackets.
func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func validateUsername(errs map[string]string, username string) {
	n := utf8.RuneCountInString(username)
	switch {
	case username == "":
		errs["username"] = reasonRequired
	case n < 3 || n > 30:
		errs["username"] = "must be 3-30 characters"
	}
}

// validateFullName checks a full name when one is given. Register falls
// back to the username for a blank name.
func validateFullName(errs map[string]string, name string) {
	if n := utf8.RuneCountInString(name); name != "" && (n < 2 || n > 50) {
		errs["fullName"] = "must be 2-50 characters"
	}
}

// validatePassword enforces the password policy: 8-128 characters with at
// least one lowercase letter, one uppercase letter and one digit.
func validatePassword(errs map[string]string, field, pw string) {
	switch {
	case pw == "":
		errs[field] = reasonRequired
	case len(pw) < 8:
		errs[field] = "must be at least 8 characters long"
	case len(pw) > maxPasswordLen:
		errs[field] = "too long (max 128)"
	case !passwordMixed(pw):
		errs[field] = reasonPassword
	}
}

func passwordMixed(pw string) bool {
	var lower, upper, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

func validateRole(errs map[string]string, role domain.Role) {
	if !role.Valid() {
		errs["role"] = "must be either user or admin"
	}
}

func validateTitle(errs map[string]string, title string) {
	n := utf8.RuneCountInString(title)
	switch {
	case n == 0:
		errs["title"] = reasonRequired
	case n > 200:
		errs["title"] = "cannot exceed 200 characters"
	}
}

func validateDescription(errs map[string]string, desc string) {
	if utf8.RuneCountInString(desc) > 1000 {
		errs["description"] = "cannot exceed 1000 characters"
	}
}

func validateStatus(errs map[string]string, s domain.TaskStatus) {
	if !s.Valid() {
		errs["status"] = "must be one of pending, in_progress, completed"
	}
}

func validatePriority(errs map[string]string, p domain.TaskPriority) {
	if !p.Valid() {
		errs["priority"] = "must be one of low, medium, high"
	}
}
