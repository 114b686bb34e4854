package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tidwall/gjson"

	"github.com/cwygoda/modscope/internal/adapter/cache"
	"github.com/cwygoda/modscope/internal/domain"
	"github.com/cwygoda/modscope/internal/logx"
)

const (
	DefaultCurseForgeBaseURL = "https://api.curseforge.com/v1"

	// minecraftGameID is CurseForge's game ID for Minecraft.
	minecraftGameID = "432"
	resolveMemoSize = 256
)

var curseForgeSlugPattern = regexp.MustCompile(`/(?:minecraft/mc-mods|projects)/([A-Za-z0-9_-]+)`)

// CurseForge resolves curseforge.com mod pages to numeric mod IDs and reads
// their file lists.
type CurseForge struct {
	baseURL   string
	apiKey    string
	fetcher   Getter
	collector *Collector
	resolved  *lru.Cache[string, domain.ModRef]
	log       *logx.Logger
}

// NewCurseForge creates the CurseForge provider. apiKey is sent as x-api-key.
func NewCurseForge(baseURL, apiKey string, f Getter, c *Collector, log *logx.Logger) (*CurseForge, error) {
	memo, err := lru.New[string, domain.ModRef](resolveMemoSize)
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = DefaultCurseForgeBaseURL
	}
	return &CurseForge{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		fetcher:   f,
		collector: c,
		resolved:  memo,
		log:       log,
	}, nil
}

func (p *CurseForge) Name() domain.ProviderName {
	return domain.CurseForge
}

func (p *CurseForge) Match(host string) bool {
	return host == "curseforge.com" || strings.HasSuffix(host, ".curseforge.com")
}

// Resolve extracts the slug from a /minecraft/mc-mods/<slug> URL. A numeric
// slug is the mod ID; anything else is looked up with the search endpoint.
func (p *CurseForge) Resolve(ctx context.Context, rawURL string) (domain.ModRef, error) {
	u, err := domain.ParseModURL(rawURL)
	if err != nil {
		return domain.ModRef{}, err
	}
	m := curseForgeSlugPattern.FindStringSubmatch(u.Path)
	if m == nil {
		return domain.ModRef{}, &domain.URLError{URL: rawURL, Err: domain.ErrUnresolvedURL}
	}
	slug := m[1]
	if ref, ok := p.resolved.Get(slug); ok {
		return ref, nil
	}

	var ref domain.ModRef
	if isNumeric(slug) {
		ref = domain.ModRef{ID: slug, Slug: slug}
	} else {
		ref, err = p.search(ctx, slug)
		if err != nil {
			return domain.ModRef{}, err
		}
	}
	if ref.Name == "" {
		if ref.Name, err = p.modName(ctx, ref.ID); err != nil {
			return domain.ModRef{}, err
		}
	}
	if ref.Name == "" {
		ref.Name = slug
	}
	p.log.Debugf("curseforge: resolved %s to %s (%s)", slug, ref.ID, ref.Name)
	p.resolved.Add(slug, ref)
	return ref, nil
}

type searchHit struct {
	id        int64
	name      string
	downloads float64
}

// search looks the slug up and picks the most downloaded hit, then the
// alphabetically first name.
func (p *CurseForge) search(ctx context.Context, slug string) (domain.ModRef, error) {
	body, err := p.fetcher.Get(ctx, p.baseURL+"/mods/search", map[string]string{
		"gameId": minecraftGameID,
		"slug":   slug,
	}, p.headers())
	if err != nil {
		return domain.ModRef{}, fmt.Errorf("search %q: %w", slug, err)
	}

	var best *searchHit
	_, err = jsonparser.ArrayEach(body, func(value []byte, _ jsonparser.ValueType, _ int, _ error) {
		id, err := jsonparser.GetInt(value, "id")
		if err != nil || id <= 0 {
			return
		}
		hit := searchHit{id: id}
		hit.name, _ = jsonparser.GetString(value, "name")
		hit.downloads, _ = jsonparser.GetFloat(value, "downloadCount")
		if best == nil || hit.downloads > best.downloads ||
			(hit.downloads == best.downloads && hit.name < best.name) {
			best = &hit
		}
	}, "data")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return domain.ModRef{}, &domain.ProviderDataError{Provider: domain.CurseForge, Reason: "search response: " + err.Error()}
	}
	if best == nil {
		return domain.ModRef{}, fmt.Errorf("no mod with slug %q: %w", slug, domain.ErrUnresolvedURL)
	}
	return domain.ModRef{ID: strconv.FormatInt(best.id, 10), Slug: slug, Name: best.name}, nil
}

func (p *CurseForge) modName(ctx context.Context, id string) (string, error) {
	body, err := p.fetcher.Get(ctx, p.baseURL+"/mods/"+url.PathEscape(id), nil, p.headers())
	if err != nil {
		return "", fmt.Errorf("mod %s: %w", id, err)
	}
	return gjson.GetBytes(body, "data.name").String(), nil
}

// Collect reads every page of the mod's file list.
func (p *CurseForge) Collect(ctx context.Context, ref domain.ModRef) ([]domain.FileRecord, error) {
	raw, err := p.collector.Collect(ctx, PageSource{
		Key:     cache.Key{Provider: domain.CurseForge, Slug: ref.Slug, ModID: ref.ID},
		URL:     p.baseURL + "/mods/" + url.PathEscape(ref.ID) + "/files",
		Headers: p.headers(),
		Params: func(page, pageSize int) map[string]string {
			return map[string]string{
				"index":    strconv.Itoa(page * pageSize),
				"pageSize": strconv.Itoa(pageSize),
			}
		},
		RecordsPath: "data",
	})
	if err != nil {
		return nil, err
	}

	records := make([]domain.FileRecord, 0, len(raw))
	for _, r := range raw {
		rec, err := curseForgeRecord(r)
		if err != nil {
			p.log.Debugf("skipping record of %s: %v", ref.Slug, err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// curseForgeRecord reads one file entry. CurseForge mixes loader names into
// gameVersions, so there is no explicit loader field.
func curseForgeRecord(r gjson.Result) (domain.FileRecord, error) {
	versions := r.Get("gameVersions")
	if !versions.IsArray() {
		return domain.FileRecord{}, &domain.ProviderDataError{
			Provider: domain.CurseForge,
			Reason:   fmt.Sprintf("file %s has no gameVersions", r.Get("id").String()),
		}
	}
	rec := domain.FileRecord{Filename: r.Get("fileName").String()}
	for _, v := range versions.Array() {
		rec.VersionTags = append(rec.VersionTags, v.String())
	}
	return rec, nil
}

func (p *CurseForge) headers() map[string]string {
	if p.apiKey == "" {
		return nil
	}
	return map[string]string{"x-api-key": p.apiKey}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
