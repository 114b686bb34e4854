// Package fetch issues HTTP GETs with a bounded retry budget.
package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/cwygoda/modscope/internal/domain"
	"github.com/cwygoda/modscope/internal/logx"
)

const (
	DefaultMaxAttempts = 5
	DefaultBackoffBase = time.Second
	DefaultBackoffMax  = 30 * time.Second
	DefaultTimeout     = 10 * time.Second
)

var errNoResponse = errors.New("no response")

// Options configures a Fetcher. Zero fields take the defaults above.
type Options struct {
	// MaxAttempts counts the first try, so 5 means up to 4 retries.
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	Timeout     time.Duration
	// RequireJSON treats a body that is not valid JSON as a retryable failure.
	RequireJSON bool
	UserAgent   string
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = DefaultBackoffBase
	}
	if o.BackoffMax < o.BackoffBase {
		o.BackoffMax = DefaultBackoffMax
		if o.BackoffMax < o.BackoffBase {
			o.BackoffMax = o.BackoffBase
		}
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = "modscope"
	}
	return o
}

// Fetcher performs GET requests, retrying transport failures, non-2xx
// responses and (optionally) non-JSON bodies with exponential backoff.
// It does no caching.
type Fetcher struct {
	client *resty.Client
	opts   Options
	log    *logx.Logger
}

// New creates a Fetcher.
func New(opts Options, log *logx.Logger) *Fetcher {
	opts = opts.withDefaults()
	f := &Fetcher{opts: opts, log: log}
	f.client = resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.MaxAttempts-1).
		SetRetryWaitTime(opts.BackoffBase).
		SetRetryMaxWaitTime(opts.BackoffMax).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", opts.UserAgent).
		AddRetryCondition(f.shouldRetry).
		AddRetryHook(func(r *resty.Response, err error) {
			if r != nil && r.Request != nil {
				f.log.Debugf("retrying %s (attempt %d/%d): %v", r.Request.URL, r.Request.Attempt, opts.MaxAttempts, failure(r, err, opts.RequireJSON))
			}
		})
	return f
}

// Options returns the effective options.
func (f *Fetcher) Options() Options {
	return f.opts
}

// Get fetches url with the given query parameters and headers and returns
// the response body. After the retry budget is spent it returns a
// *domain.FetchError carrying the last cause.
func (f *Fetcher) Get(ctx context.Context, url string, params, headers map[string]string) ([]byte, error) {
	f.log.Debugf("GET %s %v", url, params)
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetHeaders(headers).
		Get(url)

	if cause := failure(resp, err, f.opts.RequireJSON); cause != nil {
		attempts := 1
		if resp != nil && resp.Request != nil && resp.Request.Attempt > 0 {
			attempts = resp.Request.Attempt
		}
		return nil, &domain.FetchError{URL: url, Attempts: attempts, Err: cause}
	}
	return resp.Body(), nil
}

func (f *Fetcher) shouldRetry(r *resty.Response, err error) bool {
	return failure(r, err, f.opts.RequireJSON) != nil
}

// failure classifies a finished attempt; nil means success.
func failure(r *resty.Response, err error, requireJSON bool) error {
	switch {
	case err != nil:
		return err
	case r == nil:
		return errNoResponse
	case !r.IsSuccess():
		return &domain.StatusError{Code: r.StatusCode()}
	case requireJSON && !gjson.ValidBytes(r.Body()):
		return domain.ErrInvalidJSON
	}
	return nil
}
