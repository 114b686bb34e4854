package domain

import (
	"encoding/json"
	"sort"
	"strings"
)

// ProviderName identifies a supported content platform.
type ProviderName string

const (
	CurseForge ProviderName = "curseforge"
	Modrinth   ProviderName = "modrinth"
)

// Loader is the mod-loading runtime a file targets.
type Loader string

const (
	LoaderForge    Loader = "Forge"
	LoaderFabric   Loader = "Fabric"
	LoaderNeoForge Loader = "NeoForge"
	LoaderQuilt    Loader = "Quilt"
	LoaderUnknown  Loader = "Unknown"
)

// ParseLoader maps a provider loader name to the canonical Loader.
func ParseLoader(s string) (Loader, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forge":
		return LoaderForge, true
	case "fabric":
		return LoaderFabric, true
	case "neoforge", "neo-forge":
		return LoaderNeoForge, true
	case "quilt":
		return LoaderQuilt, true
	}
	return "", false
}

// VersionPair is one supported (game version, loader) combination.
type VersionPair struct {
	GameVersion string `json:"version"`
	Loader      Loader `json:"loader"`
}

// PairSet is a deduplicated set of version pairs. The zero value is not
// usable; create one with NewPairSet.
type PairSet struct {
	m map[VersionPair]struct{}
}

// NewPairSet creates an empty set.
func NewPairSet() PairSet {
	return PairSet{m: make(map[VersionPair]struct{})}
}

// Add inserts p unless its game version is not a Minecraft version.
// It reports whether p is in the set afterwards.
func (s PairSet) Add(p VersionPair) bool {
	if !IsGameVersion(p.GameVersion) {
		return false
	}
	s.m[p] = struct{}{}
	return true
}

// Contains reports whether p is in the set.
func (s PairSet) Contains(p VersionPair) bool {
	_, ok := s.m[p]
	return ok
}

// Len returns the number of pairs.
func (s PairSet) Len() int {
	return len(s.m)
}

// Sorted returns the pairs ordered ascending by game version, then loader.
func (s PairSet) Sorted() []VersionPair {
	pairs := make([]VersionPair, 0, len(s.m))
	for p := range s.m {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if c := CompareVersions(pairs[i].GameVersion, pairs[j].GameVersion); c != 0 {
			return c < 0
		}
		return pairs[i].Loader < pairs[j].Loader
	})
	return pairs
}

// MarshalJSON encodes the set as a sorted list.
func (s PairSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// ModRef is a resolved mod identity. ID and Slug are always both set.
type ModRef struct {
	ID   string
	Slug string
	Name string
}

// FileRecord is the typed view of one upstream file or version entry.
type FileRecord struct {
	VersionTags []string
	Loaders     []string
	Filename    string
}

// ModInfo is the result of processing one URL.
type ModInfo struct {
	Provider  ProviderName `json:"provider"`
	ModID     string       `json:"mod_id"`
	Slug      string       `json:"slug"`
	Name      string       `json:"name"`
	SourceURL string       `json:"url"`
	Pairs     PairSet      `json:"versions"`
}
