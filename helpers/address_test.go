package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmailAddress(t *testing.T) {
	tests := []struct {
		addr  string
		valid bool
	}{
		{"user@domain.com", true},
		{"first.last+tag@sub.domain.org", true},
		{"MAILER-DAEMON@mx1.example.net", true},
		{"user@domain", false},
		{"not an address", false},
		{"", false},
		{"(connection timed out)", false},
		{"user@@domain.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsEmailAddress(tt.addr))
		})
	}
}

func TestSplitEmailAddress(t *testing.T) {
	local, domain := SplitEmailAddress("User@Domain.COM")
	assert.Equal(t, "user", local)
	assert.Equal(t, "domain.com", domain)

	local, domain = SplitEmailAddress("nodomain")
	assert.Equal(t, "nodomain", local)
	assert.Equal(t, "", domain)
}
