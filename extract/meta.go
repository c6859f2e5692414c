package extract

import (
	"errors"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/socialpulse/engine"
	"github.com/use-agent/socialpulse/normalize"
)

// errUnparseableDate is wrapped into the normalization error for date groups.
var errUnparseableDate = errors.New("extract: unparseable date")

// MetaDescription matches a pattern against the content attribute of
// candidate <meta> tags.
//
// Candidates are tried in selector order and, within one selector, in
// document order. The first tag whose content matches wins; its capture
// groups are normalized together and no further tags are consulted.
type MetaDescription struct {
	selectors []cascadia.Selector
	pattern   *regexp.Regexp
	groups    []Field
}

// NewMetaDescription builds the strategy. groups maps capture group i+1 to
// a field; the UploadDate field is parsed as a date, every other field as a
// magnitude.
func NewMetaDescription(pattern *regexp.Regexp, groups []Field, selectors ...string) *MetaDescription {
	if pattern.NumSubexp() < len(groups) {
		panic("extract: pattern has fewer capture groups than fields")
	}
	compiled := make([]cascadia.Selector, len(selectors))
	for i, s := range selectors {
		compiled[i] = cascadia.MustCompile(s)
	}
	return &MetaDescription{selectors: compiled, pattern: pattern, groups: groups}
}

func (m *MetaDescription) Extract(page *engine.Page) (*Fields, error) {
	doc, err := parseDocument(page)
	if err != nil {
		return nil, err
	}

	for _, sel := range m.selectors {
		var match []string
		doc.FindMatcher(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			content, ok := s.Attr("content")
			if !ok || strings.TrimSpace(content) == "" {
				return true
			}
			match = m.pattern.FindStringSubmatch(content)
			return match == nil
		})
		if match != nil {
			return m.fields(match)
		}
	}
	return nil, ErrNotFound
}

// fields normalizes every group of one match. Any failure discards the
// whole match.
func (m *MetaDescription) fields(match []string) (*Fields, error) {
	f := &Fields{Counts: make(map[Field]int64, len(m.groups))}
	for i, field := range m.groups {
		raw := strings.TrimSpace(match[i+1])
		if field == UploadDate {
			date, ok := normalize.ParseDate(raw)
			if !ok {
				return nil, normalizationError(field, raw, errUnparseableDate)
			}
			f.UploadDate = date
			continue
		}
		n, err := normalize.ParseMagnitude(raw)
		if err != nil {
			return nil, normalizationError(field, raw, err)
		}
		f.Counts[field] = n
	}
	return f, nil
}
