package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tlareau/jobsift/internal/scrape"
)

// StaticProber implements scrape.Prober over a fetched HTML document, without a
// browser. Shadow trees are not serialized into static markup, so probes see
// only the top-level document; the rendered-page prober covers the rest.
type StaticProber struct {
	doc *goquery.Document
}

// NewStaticProber parses markup into a prober.
func NewStaticProber(markup string) (*StaticProber, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &StaticProber{doc: doc}, nil
}

// Text returns the trimmed text of the first match, or "" when none.
func (s *StaticProber) Text(_ context.Context, selector string) (string, error) {
	sel := s.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", nil
	}
	return strings.TrimSpace(sel.Text()), nil
}

// HTML returns the outer markup of the first match, or "" when none.
func (s *StaticProber) HTML(_ context.Context, selector string) (string, error) {
	sel := s.doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", nil
	}
	markup, err := goquery.OuterHtml(sel)
	if err != nil {
		return "", fmt.Errorf("render selection: %w", err)
	}
	return strings.TrimSpace(markup), nil
}

// BodyText returns the document's visible text.
func (s *StaticProber) BodyText(_ context.Context) (string, error) {
	return strings.TrimSpace(s.doc.Find("body").Text()), nil
}

// Anchors returns every hyperlink in document order.
func (s *StaticProber) Anchors(_ context.Context) ([]scrape.Anchor, error) {
	var anchors []scrape.Anchor
	s.doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		anchors = append(anchors, scrape.Anchor{
			Href: strings.TrimSpace(href),
			Text: strings.TrimSpace(sel.Text()),
		})
	})
	return anchors, nil
}

// Blocks returns the raw content of every match in document order.
func (s *StaticProber) Blocks(_ context.Context, selector string) ([]string, error) {
	var blocks []string
	s.doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		blocks = append(blocks, sel.Text())
	})
	return blocks, nil
}
