// Package provider implements the CurseForge and Modrinth adapters and the
// pagination machinery they share.
package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/cwygoda/modscope/internal/domain"
	"github.com/cwygoda/modscope/internal/normalize"
)

// Registry holds the registered providers.
type Registry struct {
	providers []domain.Provider
}

// NewRegistry creates a registry holding providers.
func NewRegistry(providers ...domain.Provider) *Registry {
	r := &Registry{}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds a provider to the registry.
func (r *Registry) Register(p domain.Provider) {
	r.providers = append(r.providers, p)
}

// Match returns the first provider whose host matches the URL, or nil.
func (r *Registry) Match(rawURL string) domain.Provider {
	p, _ := r.Detect(rawURL)
	return p
}

// Detect validates rawURL and selects its provider from the host alone.
// It never touches the network.
func (r *Registry) Detect(rawURL string) (domain.Provider, error) {
	u, err := domain.ParseModURL(rawURL)
	if err != nil {
		return nil, err
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range r.providers {
		if p.Match(host) {
			return p, nil
		}
	}
	return nil, &domain.URLError{URL: rawURL, Err: domain.ErrUnknownProvider}
}

// Providers returns all registered providers.
func (r *Registry) Providers() []domain.Provider {
	return r.providers
}

// Process resolves rawURL with its provider and builds the ModInfo.
func (r *Registry) Process(ctx context.Context, rawURL string) (domain.ModInfo, error) {
	p, err := r.Detect(rawURL)
	if err != nil {
		return domain.ModInfo{}, err
	}
	return Process(ctx, p, rawURL)
}

// Process runs the full pipeline for one URL against p: resolve the mod,
// collect every file record and normalize them into version pairs.
func Process(ctx context.Context, p domain.Provider, rawURL string) (domain.ModInfo, error) {
	ref, err := p.Resolve(ctx, rawURL)
	if err != nil {
		return domain.ModInfo{}, fmt.Errorf("%s: %w", p.Name(), err)
	}
	records, err := p.Collect(ctx, ref)
	if err != nil {
		return domain.ModInfo{}, fmt.Errorf("%s: collect %s: %w", p.Name(), ref.Slug, err)
	}
	name := ref.Name
	if name == "" {
		name = ref.Slug
	}
	return domain.ModInfo{
		Provider:  p.Name(),
		ModID:     ref.ID,
		Slug:      ref.Slug,
		Name:      name,
		SourceURL: rawURL,
		Pairs:     normalize.Pairs(records),
	}, nil
}
