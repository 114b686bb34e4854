package domain

import "context"

// LookupService records and serves lookup history.
type LookupService struct {
	repo LookupRepository
}

// NewLookupService creates a new LookupService.
func NewLookupService(repo LookupRepository) *LookupService {
	return &LookupService{repo: repo}
}

// Record persists the outcome of one batch job.
func (s *LookupService) Record(ctx context.Context, r Result) (*Lookup, error) {
	l := NewLookup(r)
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Get retrieves a lookup by ID.
func (s *LookupService) Get(ctx context.Context, id int64) (*Lookup, error) {
	return s.repo.Get(ctx, id)
}

// Recent returns up to limit lookups, newest first.
func (s *LookupService) Recent(ctx context.Context, limit int) ([]Lookup, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.Recent(ctx, limit)
}
