// Package normalize turns provider file records into version pairs.
package normalize

import (
	"strings"

	"github.com/cwygoda/modscope/internal/domain"
)

// keywords are ordered most specific first. Once NeoForge matches, a bare
// "forge" in the same string is not counted.
var keywords = []struct {
	word   string
	loader domain.Loader
}{
	{"neo-forge", domain.LoaderNeoForge},
	{"neoforge", domain.LoaderNeoForge},
	{"fabric", domain.LoaderFabric},
	{"quilt", domain.LoaderQuilt},
	{"forge", domain.LoaderForge},
}

// Pairs builds the deduplicated pair set for records.
func Pairs(records []domain.FileRecord) domain.PairSet {
	set := domain.NewPairSet()
	for _, r := range records {
		versions := GameVersions(r.VersionTags)
		if len(versions) == 0 {
			continue
		}
		loaders := Loaders(r)
		for _, v := range versions {
			for _, l := range loaders {
				set.Add(domain.VersionPair{GameVersion: v, Loader: l})
			}
		}
	}
	return set
}

// GameVersions filters tags down to Minecraft versions.
func GameVersions(tags []string) []string {
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if domain.IsGameVersion(t) {
			out = append(out, t)
		}
	}
	return out
}

// Loaders determines the loaders a record targets: explicit loader fields
// first, then loader keywords among the version tags, then the filename.
// It never returns an empty slice.
func Loaders(r domain.FileRecord) []domain.Loader {
	var explicit []domain.Loader
	for _, name := range r.Loaders {
		if l, ok := domain.ParseLoader(name); ok {
			explicit = appendUnique(explicit, l)
		}
	}
	if len(explicit) > 0 {
		return explicit
	}

	var tagged []domain.Loader
	for _, t := range r.VersionTags {
		for _, l := range DetectLoaders(t) {
			tagged = appendUnique(tagged, l)
		}
	}
	if len(tagged) > 0 {
		return tagged
	}

	if fromName := DetectLoaders(r.Filename); len(fromName) > 0 {
		return fromName
	}
	return []domain.Loader{domain.LoaderUnknown}
}

// DetectLoaders scans s case-insensitively for loader keywords.
func DetectLoaders(s string) []domain.Loader {
	s = strings.ToLower(s)
	var found []domain.Loader
	for _, kw := range keywords {
		if !strings.Contains(s, kw.word) {
			continue
		}
		if kw.loader == domain.LoaderForge && contains(found, domain.LoaderNeoForge) {
			continue
		}
		found = appendUnique(found, kw.loader)
	}
	return found
}

func appendUnique(ls []domain.Loader, l domain.Loader) []domain.Loader {
	if contains(ls, l) {
		return ls
	}
	return append(ls, l)
}

func contains(ls []domain.Loader, l domain.Loader) bool {
	for _, x := range ls {
		if x == l {
			return true
		}
	}
	return false
}
