package domain

import (
	"regexp"
	"sort"
	"strings"
)

var gameVersionPattern = regexp.MustCompile(`^\d+\.\d+(\.\d+)?`)

// IsGameVersion reports whether tag looks like a Minecraft version (1.x[.y]).
func IsGameVersion(tag string) bool {
	return gameVersionPattern.MatchString(tag)
}

// CompareVersions orders version strings by splitting them into digit and
// non-digit runs and comparing digit runs numerically, so "1.9" < "1.20.1".
func CompareVersions(a, b string) int {
	ra, rb := splitRuns(a), splitRuns(b)
	for i := 0; i < len(ra) && i < len(rb); i++ {
		x, y := ra[i], rb[i]
		xd, yd := isDigit(x[0]), isDigit(y[0])
		var c int
		switch {
		case xd && yd:
			c = compareNumeric(x, y)
		case xd:
			c = -1
		case yd:
			c = 1
		default:
			c = strings.Compare(x, y)
		}
		if c != 0 {
			return c
		}
	}
	switch {
	case len(ra) < len(rb):
		return -1
	case len(ra) > len(rb):
		return 1
	}
	return 0
}

// SortVersions sorts versions ascending in place.
func SortVersions(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		return CompareVersions(versions[i], versions[j]) < 0
	})
}

func splitRuns(s string) []string {
	var runs []string
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || isDigit(s[i]) != isDigit(s[start]) {
			runs = append(runs, s[start:i])
			start = i
		}
	}
	return runs
}

// compareNumeric compares two digit strings of any length without parsing.
func compareNumeric(x, y string) int {
	x = strings.TrimLeft(x, "0")
	y = strings.TrimLeft(y, "0")
	if len(x) != len(y) {
		if len(x) < len(y) {
			return -1
		}
		return 1
	}
	return strings.Compare(x, y)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
