package domain

import (
	"net/url"
	"strings"
)

// ParseModURL checks that raw is an absolute http(s) URL with a host.
func ParseModURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, &URLError{URL: raw, Err: ErrInvalidURL}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &URLError{URL: raw, Err: ErrInvalidURL}
	}
	if u.Hostname() == "" {
		return nil, &URLError{URL: raw, Err: ErrInvalidURL}
	}
	return u, nil
}
