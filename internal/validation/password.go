// Package validation checks account credentials and request payloads.
package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrPasswordTooShort   = errors.New("password must be at least 12 characters long")
	ErrPasswordTooLong    = errors.New("password must not exceed 128 characters")
	ErrPasswordNoUpper    = errors.New("password must contain an uppercase letter")
	ErrPasswordNoLower    = errors.New("password must contain a lowercase letter")
	ErrPasswordNoDigit    = errors.New("password must contain a digit")
	ErrPasswordNoSpecial  = errors.New("password must contain a symbol such as ! or #")
	ErrUsernameLength     = errors.New("username must be 3 to 20 characters")
	ErrUsernameCharacters = errors.New("username can only contain lowercase letters, numbers, and underscores")
	ErrUsernameReserved   = errors.New("username is reserved")
	ErrEmailTooLong       = errors.New("email must not exceed 254 characters")
	ErrEmailFormat        = errors.New("invalid email format")
)

// PasswordPolicy bounds a password by byte length and requires one rune
// from each character class.
type PasswordPolicy struct {
	MinLength int
	MaxLength int
}

// DefaultPasswordPolicy applies to signups and password changes.
var DefaultPasswordPolicy = PasswordPolicy{MinLength: 12, MaxLength: 128}

// Check returns the first rule password breaks.
func (p PasswordPolicy) Check(password string) error {
	switch {
	case len(password) < p.MinLength:
		return ErrPasswordTooShort
	case len(password) > p.MaxLength:
		return ErrPasswordTooLong
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
	switch {
	case !upper:
		return ErrPasswordNoUpper
	case !lower:
		return ErrPasswordNoLower
	case !digit:
		return ErrPasswordNoDigit
	case !special:
		return ErrPasswordNoSpecial
	}
	return nil
}

// ValidatePassword checks password against DefaultPasswordPolicy.
func ValidatePassword(password string) error {
	return DefaultPasswordPolicy.Check(password)
}

// Route segments and brand names a profile URL must not shadow.
var reservedUsernames = map[string]bool{
	"admin": true, "api": true, "auth": true, "explore": true,
	"settings": true, "upload": true, "download": true, "profile": true,
	"support": true, "login": true, "signup": true, "swagger": true,
	"metrics": true, "viralpik": true,
}

// NormalizeUsername trims and lowercases a username as typed.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ValidateUsername checks an already normalized username.
func ValidateUsername(username string) error {
	if n := utf8.RuneCountInString(username); n < 3 || n > 20 {
		return ErrUsernameLength
	}
	for _, r := range username {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			return ErrUsernameCharacters
		}
	}
	if reservedUsernames[username] {
		return ErrUsernameReserved
	}
	return nil
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)

// ValidateEmail is a shape check only. Deliverability is not verified.
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return ErrEmailTooLong
	}
	if !emailPattern.MatchString(email) {
		return ErrEmailFormat
	}
	return nil
}
