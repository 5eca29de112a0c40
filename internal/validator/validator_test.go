package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateURL(t *testing.T) {
	v := NewURLValidator()

	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"https", "https://example.com", nil},
		{"with path and query", "https://example.org/a/b?c=d#e", nil},
		{"ftp is absolute too", "ftp://files.example.com/x", nil},
		{"with port", "http://example.com:8080/", nil},
		{"localhost allowed by default", "http://localhost:3000", nil},
		{"empty", "", ErrEmpty},
		{"blank", "   ", ErrEmpty},
		{"just text", "not a url", ErrNotAbsolute},
		{"no scheme", "example.com", ErrNotAbsolute},
		{"scheme only", "https://", ErrNotAbsolute},
		{"no authority", "mailto:someone@example.com", ErrNotAbsolute},
		{"bad escape", "http://exa mple.com/%zz", ErrUnparsable},
		{"too long", "https://example.com/" + strings.Repeat("a", 2048), ErrTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateURL(tt.url)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateURL_BlockPrivateIPs(t *testing.T) {
	v := NewURLValidator().WithBlockPrivateIPs()

	for _, u := range []string{
		"http://localhost/",
		"http://127.0.0.1:8080/",
		"http://10.1.2.3/",
		"http://192.168.0.10/",
		"http://[::1]/",
	} {
		assert.ErrorIs(t, v.ValidateURL(u), ErrPrivateTarget, u)
	}

	assert.NoError(t, v.ValidateURL("https://8.8.8.8/"))
	assert.NoError(t, v.ValidateURL("https://example.com/"))
}

func TestValidateURL_BlockedDomains(t *testing.T) {
	v := NewURLValidator().WithBlockedDomains("Evil.test")

	assert.ErrorIs(t, v.ValidateURL("https://evil.test/x"), ErrBlockedDomain)
	assert.ErrorIs(t, v.ValidateURL("https://www.evil.test/x"), ErrBlockedDomain)
	assert.NoError(t, v.ValidateURL("https://notevil.test/x"))
}

func TestWithMaxLength(t *testing.T) {
	v := NewURLValidator().WithMaxLength(20)
	assert.NoError(t, v.ValidateURL("https://a.io"))
	assert.ErrorIs(t, v.ValidateURL("https://example.com/long"), ErrTooLong)
}
