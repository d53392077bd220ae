package validate

import (
	"regexp"
	"strings"

	"github.com/kereva-dev/duet/pkg/errcode"
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRegex = regexp.MustCompile(`^[+]?[(]?[0-9]{3}[)]?[-\s]?[0-9]{3}[-\s]?[0-9]{4,6}$`)

	upperRegex   = regexp.MustCompile(`[A-Z]`)
	numberRegex  = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// PasswordCheck holds the individual strength checks for a password.
type PasswordCheck struct {
	Length  bool
	Upper   bool
	Number  bool
	Special bool
}

// Valid reports whether every check passed.
func (p PasswordCheck) Valid() bool {
	return p.Length && p.Upper && p.Number && p.Special
}

// CheckPassword evaluates password strength requirements: at least 8
// characters, one uppercase letter, one digit and one special character.
func CheckPassword(password string) PasswordCheck {
	return PasswordCheck{
		Length:  len(password) >= 8,
		Upper:   upperRegex.MatchString(password),
		Number:  numberRegex.MatchString(password),
		Special: specialRegex.MatchString(password),
	}
}

// IsValidEmail reports whether email looks like an address.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

// IsValidPhone reports whether phone is empty or a plausible number.
func IsValidPhone(phone string) bool {
	return phone == "" || phoneRegex.MatchString(strings.TrimSpace(phone))
}

// IsValidName reports whether name is 2-50 characters after trimming.
func IsValidName(name string) bool {
	n := len(strings.TrimSpace(name))
	return n >= 2 && n <= 50
}

// Email returns a validation error unless email is well formed.
func Email(email string) error {
	if !IsValidEmail(email) {
		return errcode.ErrInvalidEmail
	}
	return nil
}

// Password returns a validation error unless password meets the
// strength requirements.
func Password(password string) error {
	if !CheckPassword(password).Valid() {
		return errcode.ErrWeakPassword
	}
	return nil
}

// Name returns a validation error unless name is within bounds.
func Name(name string) error {
	if !IsValidName(name) {
		return errcode.ErrInvalidName
	}
	return nil
}

// Phone returns a validation error unless phone is empty or plausible.
func Phone(phone string) error {
	if !IsValidPhone(phone) {
		return errcode.ErrInvalidPhone
	}
	return nil
}
