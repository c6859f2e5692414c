package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/socialpulse/engine"
	"github.com/use-agent/socialpulse/normalize"
	"golang.org/x/net/html"
)

// CountNode binds a counter field to the selector of the node holding it.
type CountNode struct {
	Field    Field
	Selector string
}

// TaggedNodeConfig configures a TaggedNode strategy.
type TaggedNodeConfig struct {
	// Counts must all be present for a match.
	Counts []CountNode

	// Optional nodes. Bio is read as text, Link from the href attribute.
	BioSelector  string
	LinkSelector string

	// TitleSuffixes are stripped from the document title to get the
	// display name.
	TitleSuffixes []string
}

type countMatcher struct {
	field Field
	sel   cascadia.Selector
}

// TaggedNode reads counters from DOM nodes identified by stable attributes.
type TaggedNode struct {
	counts   []countMatcher
	bio      cascadia.Selector
	link     cascadia.Selector
	suffixes []string
}

// NewTaggedNode compiles cfg's selectors.
func NewTaggedNode(cfg TaggedNodeConfig) *TaggedNode {
	t := &TaggedNode{suffixes: cfg.TitleSuffixes}
	for _, c := range cfg.Counts {
		t.counts = append(t.counts, countMatcher{field: c.Field, sel: cascadia.MustCompile(c.Selector)})
	}
	if cfg.BioSelector != "" {
		t.bio = cascadia.MustCompile(cfg.BioSelector)
	}
	if cfg.LinkSelector != "" {
		t.link = cascadia.MustCompile(cfg.LinkSelector)
	}
	return t
}

func (t *TaggedNode) Extract(page *engine.Page) (*Fields, error) {
	doc, err := parseDocument(page)
	if err != nil {
		return nil, err
	}

	// Presence first: a missing counter node is a layout mismatch, not a
	// normalization failure.
	raw := make([]string, len(t.counts))
	for i, c := range t.counts {
		node := doc.FindMatcher(c.sel).First()
		if node.Length() == 0 {
			return nil, ErrNotFound
		}
		raw[i] = strings.TrimSpace(node.Text())
	}

	f := &Fields{Counts: make(map[Field]int64, len(t.counts))}
	for i, c := range t.counts {
		n, err := normalize.ParseMagnitude(raw[i])
		if err != nil {
			return nil, normalizationError(c.field, raw[i], err)
		}
		f.Counts[c.field] = n
	}

	if t.bio != nil {
		if s := doc.FindMatcher(t.bio).First(); s.Length() > 0 {
			f.Bio = joinedText(s, " ")
		}
	}
	if t.link != nil {
		if href, ok := doc.FindMatcher(t.link).First().Attr("href"); ok {
			f.Link = href
		}
	}
	f.Name = t.displayName(doc, page.Title)

	return f, nil
}

// displayName strips the first matching platform suffix from the title.
func (t *TaggedNode) displayName(doc *goquery.Document, fallback string) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(fallback)
	}
	for _, suffix := range t.suffixes {
		if trimmed, ok := strings.CutSuffix(title, suffix); ok {
			return strings.TrimSpace(trimmed)
		}
	}
	return title
}

// joinedText joins the trimmed, non-empty text nodes under s with sep, so
// "<h2>line one<br>line two</h2>" becomes "line one line two".
func joinedText(s *goquery.Selection, sep string) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}
