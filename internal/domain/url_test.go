package domain

import (
	"errors"
	"testing"
)

func TestParseModURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https", "https://www.curseforge.com/minecraft/mc-mods/jei", false},
		{"http", "http://modrinth.com/mod/sodium", false},
		{"no scheme", "modrinth.com/mod/sodium", true},
		{"ftp", "ftp://modrinth.com/mod/sodium", true},
		{"not a url", "not a url", true},
		{"empty", "", true},
		{"no host", "https:///mod/sodium", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseModURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseModURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidURL) {
				t.Errorf("error = %v, want ErrInvalidURL", err)
			}
		})
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	err := &FetchError{URL: "https://api.modrinth.com/v2/project/x", Attempts: 5, Err: &StatusError{Code: 503}}

	var se *StatusError
	if !errors.As(err, &se) || se.Code != 503 {
		t.Errorf("errors.As(StatusError) failed for %v", err)
	}
	if got := err.Error(); got != "fetch https://api.modrinth.com/v2/project/x failed after 5 attempt(s): HTTP 503" {
		t.Errorf("Error() = %q", got)
	}
}
