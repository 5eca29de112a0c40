package validator

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var (
	ErrEmpty         = errors.New("url is empty")
	ErrTooLong       = errors.New("url exceeds maximum length")
	ErrUnparsable    = errors.New("url could not be parsed")
	ErrNotAbsolute   = errors.New("url must have a scheme and a host")
	ErrBlockedDomain = errors.New("domain is not allowed")
	ErrPrivateTarget = errors.New("url points to a private or loopback address")
)

// URLValidator checks target URLs before they are stored.
// Any scheme is accepted as long as the URL carries an authority.
type URLValidator struct {
	maxLength       int
	blockedDomains  []string
	blockPrivateIPs bool
}

// NewURLValidator creates a validator with default settings
func NewURLValidator() *URLValidator {
	return &URLValidator{
		maxLength:      2048,
		blockedDomains: []string{},
	}
}

// ValidateURL validates a URL string
func (v *URLValidator) ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return ErrEmpty
	}

	if len(rawURL) > v.maxLength {
		return fmt.Errorf("%w (%d characters)", ErrTooLong, v.maxLength)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return ErrUnparsable
	}

	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return ErrNotAbsolute
	}

	host := strings.ToLower(parsedURL.Hostname())
	if host == "" {
		return ErrNotAbsolute
	}

	if v.isBlockedDomain(host) {
		return ErrBlockedDomain
	}

	if v.blockPrivateIPs && isPrivateHost(host) {
		return ErrPrivateTarget
	}

	return nil
}

// ============================================================
// HELPER METHODS
// ============================================================

func (v *URLValidator) isBlockedDomain(host string) bool {
	for _, blocked := range v.blockedDomains {
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}

func isPrivateHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast()
}

// ============================================================
// CONFIGURATION METHODS
// ============================================================

// WithMaxLength sets maximum URL length
func (v *URLValidator) WithMaxLength(length int) *URLValidator {
	v.maxLength = length
	return v
}

// WithBlockedDomains adds domains to block list
func (v *URLValidator) WithBlockedDomains(domains ...string) *URLValidator {
	for _, d := range domains {
		v.blockedDomains = append(v.blockedDomains, strings.ToLower(d))
	}
	return v
}

// WithBlockPrivateIPs rejects loopback, private and link-local targets
func (v *URLValidator) WithBlockPrivateIPs() *URLValidator {
	v.blockPrivateIPs = true
	return v
}
