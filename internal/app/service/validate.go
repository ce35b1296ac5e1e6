// Package service implements the business logic of linkdrop: profile,
// link and drop management, username availability, MFA-gated account
// deletion, billing redirects and session handling.
package service

import (
	"errors"
	"net/url"
	"strings"
)

// Validation errors reported for malformed usernames. These surface to
// users verbatim, so the wording is part of the API.
var (
	ErrUsernameTooShort = errors.New("Username must be at least 3 characters")
	ErrUsernameTooLong  = errors.New("Username must be at most 30 characters")
	ErrUsernameCharset  = errors.New("Username can only contain lowercase letters, numbers, hyphens and underscores")
)

// NormalizeUsername trims surrounding whitespace and lower-cases the
// candidate. All validation and lookups operate on the normalized form.
func NormalizeUsername(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidateUsername checks a normalized candidate against the username
// format rules. Empty input returns nil error with ok=false, which
// callers treat as a neutral (not-yet-typed) state.
func ValidateUsername(name string) (ok bool, err error) {
	if name == "" {
		return false, nil
	}
	if len(name) < 3 {
		return false, ErrUsernameTooShort
	}
	if len(name) > 30 {
		return false, ErrUsernameTooLong
	}
	for _, r := range name {
		isLower := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		if !isLower && !isDigit && r != '_' && r != '-' {
			return false, ErrUsernameCharset
		}
	}
	return true, nil
}

// IsSafeHTTPURL reports whether raw is an absolute http(s) URL with a
// host and without embedded credentials. Profile links must pass this.
func IsSafeHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host == "" || u.User != nil {
		return false
	}
	return true
}

// IsBaseHost reports whether host is the base domain itself or one of
// its subdomains.
func IsBaseHost(host, base string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	base = strings.ToLower(strings.TrimSuffix(base, "."))
	if base == "" {
		return false
	}
	return host == base || strings.HasSuffix(host, "."+base)
}
