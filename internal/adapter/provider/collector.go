package provider

import (
	"context"
	"time"

	"github.com/tidwall/gjson"

	"github.com/cwygoda/modscope/internal/adapter/cache"
	"github.com/cwygoda/modscope/internal/domain"
	"github.com/cwygoda/modscope/internal/logx"
)

const (
	DefaultPageSize  = 50
	DefaultPageDelay = 200 * time.Millisecond
	DefaultMaxPages  = 1000
)

// Getter is the retrying HTTP fetcher.
type Getter interface {
	Get(ctx context.Context, url string, params, headers map[string]string) ([]byte, error)
}

// PageCache is the on-disk page cache.
type PageCache interface {
	Get(key cache.Key) ([]byte, bool, error)
	Put(key cache.Key, payload []byte) error
}

// FailurePolicy decides what a failed page does to a collection run.
// Strict aborts on the first failure. Tolerant skips failed pages and
// aborts after MaxConsecutive failures in a row.
type FailurePolicy struct {
	Tolerant       bool
	MaxConsecutive int
}

// Strict aborts on the first failed page.
func Strict() FailurePolicy {
	return FailurePolicy{}
}

// Tolerant skips up to n-1 consecutive failed pages.
func Tolerant(n int) FailurePolicy {
	if n < 1 {
		n = 1
	}
	return FailurePolicy{Tolerant: true, MaxConsecutive: n}
}

// PageSource describes one paginated listing.
type PageSource struct {
	// Key carries provider, slug and mod ID; Page is set per request.
	Key     cache.Key
	URL     string
	Headers map[string]string
	// Params builds the query for a zero-based page index.
	Params func(page, pageSize int) map[string]string
	// RecordsPath is the gjson path of the record array inside a page.
	// Empty means the payload itself is the array.
	RecordsPath string
}

// CollectorOptions configures a Collector. Zero fields take defaults.
type CollectorOptions struct {
	PageSize  int
	PageDelay time.Duration
	Policy    FailurePolicy
	MaxPages  int
}

// Collector walks a paginated listing sequentially, reading through the
// page cache and writing fresh pages back to it.
type Collector struct {
	fetcher  Getter
	cache    PageCache
	pageSize int
	delay    time.Duration
	policy   FailurePolicy
	maxPages int
	log      *logx.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewCollector creates a Collector. pc may be nil to disable caching.
func NewCollector(f Getter, pc PageCache, opts CollectorOptions, log *logx.Logger) *Collector {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.PageDelay < 0 {
		opts.PageDelay = 0
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.Policy.Tolerant && opts.Policy.MaxConsecutive < 1 {
		opts.Policy.MaxConsecutive = 1
	}
	return &Collector{
		fetcher:  f,
		cache:    pc,
		pageSize: opts.PageSize,
		delay:    opts.PageDelay,
		policy:   opts.Policy,
		maxPages: opts.MaxPages,
		log:      log,
		sleep:    sleepContext,
	}
}

// PageSize returns the number of records requested per page.
func (c *Collector) PageSize() int {
	return c.pageSize
}

// Collect fetches pages 0, 1, ... until a page holds fewer than PageSize
// records, and returns all records in page order.
func (c *Collector) Collect(ctx context.Context, src PageSource) ([]gjson.Result, error) {
	var records []gjson.Result
	failures := 0
	for page := 0; page < c.maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageRecords, live, err := c.page(ctx, src, page)
		if err != nil {
			if !c.policy.Tolerant {
				return nil, err
			}
			failures++
			c.log.Printf("%s %s: page %d failed (%d/%d): %v", src.Key.Provider, src.Key.Slug, page, failures, c.policy.MaxConsecutive, err)
			if failures >= c.policy.MaxConsecutive {
				return nil, err
			}
			continue
		}
		failures = 0
		records = append(records, pageRecords...)

		if len(pageRecords) < c.pageSize {
			return records, nil
		}
		if live {
			if err := c.sleep(ctx, c.delay); err != nil {
				return nil, err
			}
		}
	}
	c.log.Printf("%s %s: stopped after %d pages", src.Key.Provider, src.Key.Slug, c.maxPages)
	return records, nil
}

// page returns the records of one page and whether they came from the network.
func (c *Collector) page(ctx context.Context, src PageSource, page int) ([]gjson.Result, bool, error) {
	key := src.Key
	key.Page = page

	if c.cache != nil {
		payload, ok, err := c.cache.Get(key)
		switch {
		case err != nil:
			c.log.Debugf("cache read %s page %d: %v", key.Slug, page, err)
		case ok:
			recs, err := records(payload, src)
			if err == nil {
				c.log.Debugf("cache hit %s %s page %d", key.Provider, key.Slug, page)
				return recs, false, nil
			}
			c.log.Debugf("cached page %d of %s unreadable, refetching: %v", page, key.Slug, err)
		}
	}

	var params map[string]string
	if src.Params != nil {
		params = src.Params(page, c.pageSize)
	}
	body, err := c.fetcher.Get(ctx, src.URL, params, src.Headers)
	if err != nil {
		return nil, true, err
	}
	recs, err := records(body, src)
	if err != nil {
		return nil, true, err
	}
	if c.cache != nil {
		if err := c.cache.Put(key, body); err != nil {
			c.log.Printf("warning: %v", err)
		}
	}
	return recs, true, nil
}

func records(payload []byte, src PageSource) ([]gjson.Result, error) {
	if !gjson.ValidBytes(payload) {
		return nil, &domain.ProviderDataError{Provider: src.Key.Provider, Reason: "page is not valid JSON"}
	}
	res := gjson.ParseBytes(payload)
	if src.RecordsPath != "" {
		res = res.Get(src.RecordsPath)
	}
	if !res.IsArray() {
		return nil, &domain.ProviderDataError{Provider: src.Key.Provider, Reason: "page holds no record array"}
	}
	return res.Array(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
