package domain

import "context"

// Provider is one content platform: it resolves mod URLs and collects the
// file records needed to build a ModInfo.
type Provider interface {
	Name() ProviderName
	Match(host string) bool
	Resolve(ctx context.Context, rawURL string) (ModRef, error)
	Collect(ctx context.Context, ref ModRef) ([]FileRecord, error)
}

// LookupRepository is the driven port for lookup history.
type LookupRepository interface {
	Create(ctx context.Context, l *Lookup) error
	Get(ctx context.Context, id int64) (*Lookup, error)
	Recent(ctx context.Context, limit int) ([]Lookup, error)
}
