// Package validate holds the per-field cleaning and validation rules.
// Validators normalize before validating, and the normalized value is what
// gets stored and compared, so lookups are case-insensitive by construction.
package validate

import (
	"regexp"
	"strings"

	"github.com/wingit-app/wingit-server/internal/apierr"
)

const (
	MaxUsernameLength  = 64
	PasswordHashLength = 64
)

// Canonicalized emails carry no dots in the local part, so the local rule has
// none; the domain needs at least one dot and never two in a row.
var emailRule = regexp.MustCompile(`^[a-z0-9_%+'-]+@[a-z0-9-]+(\.[a-z0-9-]+)+$`)

// Username lowercases s and checks it is 1..64 chars of [a-z0-9_].
func Username(s string) (string, error) {
	s = strings.ToLower(s)
	if len(s) == 0 || len(s) > MaxUsernameLength {
		return "", apierr.InvalidUsername(s)
	}
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '_' {
			return "", apierr.InvalidUsername(s)
		}
	}
	return s, nil
}

// Email canonicalizes s and checks its syntax. Canonicalization happens
// before validation and before any uniqueness lookup, so "a.b@x.com" and
// "ab@x.com" refer to the same account.
func Email(s string) (string, error) {
	s = CanonicalEmail(s)
	if strings.Count(s, "@") != 1 || !emailRule.MatchString(s) {
		return "", apierr.InvalidEmail(s)
	}
	return s, nil
}

// CanonicalEmail lowercases s and strips every dot before the first '@'.
// When there is no '@' the whole string is treated as the local part.
func CanonicalEmail(s string) string {
	s = strings.ToLower(s)
	idx := strings.Index(s, "@")
	if idx < 0 {
		idx = len(s)
	}
	return strings.ReplaceAll(s[:idx], ".", "") + s[idx:]
}

// PasswordHash lowercases s and checks it is exactly a sha256 hex digest:
// 64 chars, all [0-9a-f]. Uppercase hex is accepted via the lowering.
func PasswordHash(s string) (string, error) {
	s = strings.ToLower(s)
	if len(s) != PasswordHashLength {
		return "", apierr.InvalidPasswordHash()
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", apierr.InvalidPasswordHash()
		}
	}
	return s, nil
}
