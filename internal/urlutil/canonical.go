package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned by Validate for anything that is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("url must be an absolute http or https url")

// Normalize returns the aggregation key for a URL: exactly one trailing "/" is
// stripped, everything else is left untouched. It never fails.
func Normalize(rawURL string) string {
	return strings.TrimSuffix(rawURL, "/")
}

// Validate reports whether rawURL can be probed.
// The URL must parse, be absolute, use http or https and carry a host.
func Validate(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if !u.IsAbs() || (scheme != "http" && scheme != "https") {
		return ErrInvalidURL
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

// Host returns the lowercased host name of rawURL, or "" if it does not parse.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
