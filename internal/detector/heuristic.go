// Package detector decides whether a statically fetched detail page is
// sufficient for extraction or a rendered pass is required.
package detector

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tlareau/jobsift/internal/scrape"
)

// Heuristic inspects static HTML for signals that the content is behind a
// JavaScript wall: a tiny body, known placeholder keywords, or none of the
// expected content selectors present.
type Heuristic struct {
	minHTMLBytes int
	selectors    []string
	keywords     [][]byte
}

// New constructs a detector. Selectors are content markers whose absence
// suggests the page renders client-side; keywords are placeholder phrases.
func New(minBytes int, selectors, keywords []string) *Heuristic {
	lowerKeywords := make([][]byte, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		lowerKeywords = append(lowerKeywords, bytes.ToLower([]byte(kw)))
	}
	return &Heuristic{
		minHTMLBytes: minBytes,
		selectors:    selectors,
		keywords:     lowerKeywords,
	}
}

// NeedsRender reports whether the detail pipeline should open a browser tab.
// A static page that already yielded a complete structured fragment never
// needs rendering.
func (d *Heuristic) NeedsRender(body []byte, structured *scrape.Fragment) bool {
	if d == nil {
		return true
	}
	if structuredComplete(structured) {
		return false
	}
	switch {
	case d.bodyBelowThreshold(body):
		return true
	case d.containsKeywords(body):
		return true
	default:
		return d.missingSelectors(body)
	}
}

// structuredComplete reports whether the structured tier already covered
// every content field the DOM tier could add.
func structuredComplete(f *scrape.Fragment) bool {
	if f == nil {
		return false
	}
	return f.Title != "" &&
		f.Company != "" &&
		f.Location != "" &&
		f.PostedDate != "" &&
		f.EmploymentType != "" &&
		f.Description != ""
}

func (d *Heuristic) bodyBelowThreshold(body []byte) bool {
	return d.minHTMLBytes > 0 && len(body) < d.minHTMLBytes
}

func (d *Heuristic) containsKeywords(body []byte) bool {
	if len(body) == 0 || len(d.keywords) == 0 {
		return false
	}
	lowerBody := bytes.ToLower(body)
	for _, kw := range d.keywords {
		if bytes.Contains(lowerBody, kw) {
			return true
		}
	}
	return false
}

func (d *Heuristic) missingSelectors(body []byte) bool {
	if len(d.selectors) == 0 || len(body) == 0 {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return true
	}
	for _, sel := range d.selectors {
		if sel == "" {
			continue
		}
		if doc.Find(sel).Length() > 0 {
			return false
		}
	}
	return true
}
