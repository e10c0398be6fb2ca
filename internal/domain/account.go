package domain

import "strings"

// Account is an opaque staker identity. The engine never interprets it beyond
// equality; the API boundary decides what shapes are acceptable.
type Account string

// Normalize lowercases the account so that map lookups are case-insensitive
// for hex-style addresses.
func (a Account) Normalize() Account {
	return Account(strings.ToLower(strings.TrimSpace(string(a))))
}

// IsZero reports whether the account is empty.
func (a Account) IsZero() bool {
	return strings.TrimSpace(string(a)) == ""
}

func (a Account) String() string {
	return string(a)
}
