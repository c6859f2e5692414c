// Package extract locates the markup fragment carrying a page's counters
// and turns it into typed fields.
//
// Two strategies share the Extractor contract: MetaDescription reads a
// summary string from <meta> tags, TaggedNode reads DOM nodes marked with
// stable attributes. Both return ErrNotFound when the page layout does not
// match, which callers must be able to tell apart from transport faults.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/socialpulse/engine"
	"github.com/use-agent/socialpulse/models"
)

// ErrNotFound means no candidate element produced a match.
var ErrNotFound = errors.New("extract: no candidate matched")

// Field names a value carried by a page.
type Field string

const (
	Followers  Field = "followers"
	Following  Field = "following"
	Posts      Field = "posts"
	Likes      Field = "likes"
	Comments   Field = "comments"
	UploadDate Field = "upload_date"
)

// Fields holds everything one successful match produced. Counts is either
// complete for the strategy's field set or the Fields value does not exist.
type Fields struct {
	Counts     map[Field]int64
	UploadDate string

	// Optional enrichments.
	Bio  string
	Link string
	Name string
}

// Count returns the counter for f, zero if absent.
func (f *Fields) Count(k Field) int64 {
	return f.Counts[k]
}

// Extractor pulls Fields out of a rendered page.
type Extractor interface {
	Extract(page *engine.Page) (*Fields, error)
}

func parseDocument(page *engine.Page) (*goquery.Document, error) {
	if page == nil || strings.TrimSpace(page.HTML) == "" {
		return nil, ErrNotFound
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("extract: parse html: %w", err)
	}
	return doc, nil
}

// normalizationError marks a matched fragment whose text could not be
// normalized. It is recoverable: a later render may produce clean text.
func normalizationError(field Field, raw string, err error) error {
	return models.NewScrapeError(
		models.ErrCodeNormalization,
		fmt.Sprintf("could not normalize %s value %q", field, raw),
		err,
	)
}
