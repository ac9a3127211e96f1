package helpers

import (
	"regexp"
	"strings"
)

// Matches most practically occurring addresses. Full RFC 3696 validation
// is deliberately out of scope; the queue listing only ever contains
// plain envelope addresses.
var emailAddrRegex = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]+$`)

// IsEmailAddress reports whether s is a syntactically valid email address.
func IsEmailAddress(s string) bool {
	return emailAddrRegex.MatchString(s)
}

// SplitEmailAddress splits an address into its local part and domain.
func SplitEmailAddress(email string) (string, string) {
	email = strings.ToLower(email)
	local, domain, found := strings.Cut(email, "@")
	if !found {
		return local, ""
	}
	return local, domain
}
