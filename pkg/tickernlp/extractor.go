// Package tickernlp extracts mentions of other universe tickers from a
// headline using alias-table + regex matching: one case-insensitive pattern
// per ticker, built from its company name and any aliases, against a live
// stock universe.
package tickernlp

import (
	"regexp"
	"strings"
)

// Mention is a single ticker reference found in a headline.
type Mention struct {
	StockCode  string
	StockName  string
	Confidence float64
}

// Extractor matches company names and their aliases against headline text.
// It is rebuilt whenever the active universe changes, since the aliases it
// scans for are entirely name-derived.
type Extractor struct {
	entries []aliasEntry
}

type aliasEntry struct {
	code    string
	name    string
	pattern *regexp.Regexp
	aliases []string
}

// New builds an Extractor from a code->name universe map plus optional
// per-code alias overrides (e.g. "005930": {"삼성전자", "Samsung Electronics"}).
func New(universe map[string]string, aliases map[string][]string) *Extractor {
	entries := make([]aliasEntry, 0, len(universe))
	for code, name := range universe {
		names := append([]string{name}, aliases[code]...)
		var patterns []string
		for _, n := range names {
			trimmed := strings.TrimSpace(n)
			if trimmed == "" {
				continue
			}
			patterns = append(patterns, regexp.QuoteMeta(trimmed))
		}
		if len(patterns) == 0 {
			continue
		}
		re := regexp.MustCompile("(?i)(" + strings.Join(patterns, "|") + ")")
		entries = append(entries, aliasEntry{code: code, name: name, pattern: re, aliases: names})
	}
	return &Extractor{entries: entries}
}

// Extract scans headline for every universe ticker's name or alias,
// excluding selfCode so the subject ticker of an article is never reported
// as a "competitor" mention of itself. Confidence is 1.0 for an exact
// corporate-name match; this extractor does not attempt fuzzy matching.
func (e *Extractor) Extract(headline, selfCode string) []Mention {
	var out []Mention
	for _, entry := range e.entries {
		if entry.code == selfCode {
			continue
		}
		if entry.pattern.MatchString(headline) {
			out = append(out, Mention{
				StockCode:  entry.code,
				StockName:  entry.name,
				Confidence: 1.0,
			})
		}
	}
	return out
}
