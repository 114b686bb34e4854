package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cwygoda/modscope/internal/domain"
)

// renderModInfo prints one mod as a version/loader table.
func renderModInfo(w io.Writer, info domain.ModInfo) {
	pairs := info.Pairs.Sorted()
	// The title goes above the table; go-pretty wraps titles to the table width.
	fmt.Fprintf(w, "%s (%s %s)\n", text.Bold.Sprint(info.Name), info.Provider, info.ModID)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Version", "Loader"})
	for _, p := range pairs {
		t.AppendRow(table.Row{p.GameVersion, p.Loader})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d pair(s)", len(pairs))})
	t.Render()
}

// renderError prints the one-line failure for a URL.
func renderError(w io.Writer, r domain.Result) {
	msg := "no result"
	if r.Err != nil {
		msg = r.Err.Error()
	}
	fmt.Fprintf(w, "%s %s: %s\n", text.FgRed.Sprint("error"), r.URL, msg)
}

func renderLookup(w io.Writer, l *domain.Lookup) {
	if l.Status != domain.StatusCompleted {
		fmt.Fprintf(w, "#%d %s failed at %s: %s\n", l.ID, l.URL, l.CreatedAt.Format("2006-01-02 15:04"), l.Error)
		return
	}
	pairs := domain.NewPairSet()
	for _, p := range l.Pairs {
		pairs.Add(p)
	}
	renderModInfo(w, domain.ModInfo{
		Provider:  l.Provider,
		ModID:     l.ModID,
		Name:      l.Name,
		SourceURL: l.URL,
		Pairs:     pairs,
	})
}

func renderHistory(w io.Writer, lookups []domain.Lookup) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "When", "Status", "Mod", "Pairs / Error"})
	for _, l := range lookups {
		detail := l.Error
		name := l.URL
		if l.Status == domain.StatusCompleted {
			detail = fmt.Sprintf("%d", len(l.Pairs))
			name = fmt.Sprintf("%s (%s)", l.Name, l.Provider)
		}
		t.AppendRow(table.Row{l.ID, l.CreatedAt.Format("2006-01-02 15:04"), l.Status, name, detail})
	}
	t.Render()
}

// sortByInput orders results like the URLs they came from.
func sortByInput(results []domain.Result, urls []string) {
	pos := make(map[string]int, len(urls))
	for i := len(urls) - 1; i >= 0; i-- {
		pos[urls[i]] = i
	}
	sort.SliceStable(results, func(i, j int) bool {
		return pos[results[i].URL] < pos[results[j].URL]
	})
}
