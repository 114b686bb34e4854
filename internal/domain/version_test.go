package domain

import (
	"reflect"
	"testing"
)

func TestSortVersions(t *testing.T) {
	got := []string{"1.9", "1.20.1", "1.2"}
	SortVersions(got)

	want := []string{"1.2", "1.9", "1.20.1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortVersions() = %v, want %v", got, want)
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.20.10", "1.9", 1},
		{"1.20.10", "1.20.2", 1},
		{"1.2", "1.2", 0},
		{"1.20", "1.20.1", -1},
		{"1.20.1", "1.20", 1},
		{"1.19-pre1", "1.19.1", -1},
		{"1.07", "1.7", 0},
		{"", "1.0", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			if got := CompareVersions(tt.a, tt.b); sign(got) != tt.want {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestIsGameVersion(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{"1.20.1", true},
		{"1.7", true},
		{"1.18-Snapshot", true},
		{"Forge", false},
		{"Java 17", false},
		{"Client", false},
		{"1", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := IsGameVersion(tt.tag); got != tt.want {
				t.Errorf("IsGameVersion(%q) = %v, want %v", tt.tag, got, tt.want)
			}
		})
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
