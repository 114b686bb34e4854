package domain

import "time"

// LookupStatus is the outcome of processing one URL.
type LookupStatus string

const (
	StatusCompleted LookupStatus = "completed"
	StatusFailed    LookupStatus = "failed"
)

// Result is the outcome of one batch job: either Info or Err is set.
type Result struct {
	URL  string
	Info *ModInfo
	Err  error
}

// OK reports whether the job produced a ModInfo.
func (r Result) OK() bool {
	return r.Err == nil && r.Info != nil
}

// Lookup is the persisted record of a processed URL.
type Lookup struct {
	ID        int64
	URL       string
	Status    LookupStatus
	Provider  ProviderName
	ModID     string
	Name      string
	Pairs     []VersionPair
	Error     string
	CreatedAt time.Time
}

// NewLookup builds the history record for a batch result.
func NewLookup(r Result) *Lookup {
	l := &Lookup{URL: r.URL, CreatedAt: time.Now()}
	if !r.OK() {
		l.Status = StatusFailed
		if r.Err != nil {
			l.Error = r.Err.Error()
		} else {
			l.Error = "no result"
		}
		return l
	}
	l.Status = StatusCompleted
	l.Provider = r.Info.Provider
	l.ModID = r.Info.ModID
	l.Name = r.Info.Name
	l.Pairs = r.Info.Pairs.Sorted()
	return l
}
