package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/cwygoda/modscope/internal/adapter/cache"
	"github.com/cwygoda/modscope/internal/domain"
	"github.com/cwygoda/modscope/internal/logx"
)

const DefaultModrinthBaseURL = "https://api.modrinth.com/v2"

// modrinthMarkers are path segments followed by the project slug.
var modrinthMarkers = map[string]bool{"project": true, "mod": true, "mods": true}

// Modrinth resolves modrinth.com project pages and reads their version lists.
type Modrinth struct {
	baseURL   string
	fetcher   Getter
	collector *Collector
	log       *logx.Logger
}

// NewModrinth creates the Modrinth provider. Modrinth needs no credential.
func NewModrinth(baseURL string, f Getter, c *Collector, log *logx.Logger) *Modrinth {
	if baseURL == "" {
		baseURL = DefaultModrinthBaseURL
	}
	return &Modrinth{
		baseURL:   strings.TrimRight(baseURL, "/"),
		fetcher:   f,
		collector: c,
		log:       log,
	}
}

func (p *Modrinth) Name() domain.ProviderName {
	return domain.Modrinth
}

func (p *Modrinth) Match(host string) bool {
	return host == "modrinth.com" || strings.HasSuffix(host, ".modrinth.com")
}

// Slug extracts the project slug from /project/<slug>, /mod/<slug> or
// /mods/<slug>, falling back to the last path segment.
func (p *Modrinth) Slug(rawURL string) (string, error) {
	u, err := domain.ParseModURL(rawURL)
	if err != nil {
		return "", err
	}
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	for i := 0; i+1 < len(segs); i++ {
		if modrinthMarkers[strings.ToLower(segs[i])] {
			return segs[i+1], nil
		}
	}
	if len(segs) == 0 {
		return "", &domain.URLError{URL: rawURL, Err: domain.ErrUnresolvedURL}
	}
	return segs[len(segs)-1], nil
}

// Resolve reads the slug from the URL and the canonical project ID from the
// project endpoint.
func (p *Modrinth) Resolve(ctx context.Context, rawURL string) (domain.ModRef, error) {
	slug, err := p.Slug(rawURL)
	if err != nil {
		return domain.ModRef{}, err
	}
	body, err := p.fetcher.Get(ctx, p.baseURL+"/project/"+url.PathEscape(slug), nil, nil)
	if err != nil {
		return domain.ModRef{}, fmt.Errorf("project %q: %w", slug, err)
	}

	project := gjson.ParseBytes(body)
	id := project.Get("id").String()
	if id == "" {
		return domain.ModRef{}, fmt.Errorf("project %q has no id: %w", slug, domain.ErrUnresolvedURL)
	}
	name := project.Get("title").String()
	if name == "" {
		name = project.Get("name").String()
	}
	if name == "" {
		name = slug
	}
	p.log.Debugf("modrinth: resolved %s to %s (%s)", slug, id, name)
	return domain.ModRef{ID: id, Slug: slug, Name: name}, nil
}

// Collect reads every page of the project's version list.
func (p *Modrinth) Collect(ctx context.Context, ref domain.ModRef) ([]domain.FileRecord, error) {
	raw, err := p.collector.Collect(ctx, PageSource{
		Key: cache.Key{Provider: domain.Modrinth, Slug: ref.Slug, ModID: ref.ID},
		URL: p.baseURL + "/project/" + url.PathEscape(ref.Slug) + "/version",
		Params: func(page, pageSize int) map[string]string {
			return map[string]string{
				"offset": strconv.Itoa(page * pageSize),
				"limit":  strconv.Itoa(pageSize),
			}
		},
	})
	if err != nil {
		return nil, err
	}

	records := make([]domain.FileRecord, 0, len(raw))
	for _, r := range raw {
		rec, err := modrinthRecord(r)
		if err != nil {
			p.log.Debugf("skipping record of %s: %v", ref.Slug, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func modrinthRecord(r gjson.Result) (domain.FileRecord, error) {
	versions := r.Get("game_versions")
	if !versions.IsArray() {
		return domain.FileRecord{}, &domain.ProviderDataError{
			Provider: domain.Modrinth,
			Reason:   fmt.Sprintf("version %s has no game_versions", r.Get("id").String()),
		}
	}
	var rec domain.FileRecord
	for _, v := range versions.Array() {
		rec.VersionTags = append(rec.VersionTags, v.String())
	}
	for _, l := range r.Get("loaders").Array() {
		rec.Loaders = append(rec.Loaders, l.String())
	}
	rec.Filename = primaryFilename(r.Get("files"))
	return rec, nil
}

// primaryFilename returns the file flagged primary, else the first one.
func primaryFilename(files gjson.Result) string {
	all := files.Array()
	for _, f := range all {
		if f.Get("primary").Bool() {
			return f.Get("filename").String()
		}
	}
	if len(all) > 0 {
		return all[0].Get("filename").String()
	}
	return ""
}
