package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL      = errors.New("invalid URL")
	ErrUnknownProvider = errors.New("unknown provider")
	ErrUnresolvedURL   = errors.New("could not resolve mod identifier")
	ErrInvalidJSON     = errors.New("response is not valid JSON")
	ErrLookupNotFound  = errors.New("lookup not found")
)

// URLError ties a URL-level failure to the offending URL.
type URLError struct {
	URL string
	Err error
}

func (e *URLError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.URL)
}

func (e *URLError) Unwrap() error { return e.Err }

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// FetchError is returned once the retry budget for a request is spent.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// CacheWriteError means a page could not be persisted. It is never fatal.
type CacheWriteError struct {
	Path string
	Err  error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache write %s: %v", e.Path, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }

// ProviderDataError describes an upstream record with an unexpected shape.
type ProviderDataError struct {
	Provider ProviderName
	Reason   string
}

func (e *ProviderDataError) Error() string {
	return fmt.Sprintf("%s: unexpected data: %s", e.Provider, e.Reason)
}
