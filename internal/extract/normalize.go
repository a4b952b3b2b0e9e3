package extract

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/tlareau/jobsift/internal/scrape"
)

// tagPattern detects markup in a structured description value.
var tagPattern = regexp.MustCompile(`<[a-zA-Z][^>]*>`)

// Normalize merges the structured and DOM fragments into the output record.
// Per field the structured value wins when present and non-empty, then the
// DOM value, then null. Textual values are trimmed and empty strings become
// nulls, never empty-string sentinels.
func Normalize(sourceURL string, structured *scrape.Fragment, dom scrape.Fragment, scrapedAt time.Time) scrape.JobRecord {
	var s scrape.Fragment
	if structured != nil {
		s = *structured
	}
	return scrape.JobRecord{
		SourceURL:       sourceURL,
		Title:           pick(s.Title, dom.Title),
		Company:         pick(s.Company, dom.Company),
		Location:        pick(s.Location, dom.Location),
		PostedDate:      pick(s.PostedDate, dom.PostedDate),
		EmploymentType:  pick(s.EmploymentType, dom.EmploymentType),
		ValidThrough:    pick(s.ValidThrough, dom.ValidThrough),
		ExternalID:      pick(s.ExternalID, dom.ExternalID),
		DescriptionHTML: description(s.Description, dom.Description),
		ScrapedAt:       scrapedAt,
	}
}

func pick(structured, dom string) *string {
	if v := strings.TrimSpace(structured); v != "" {
		return &v
	}
	if v := strings.TrimSpace(dom); v != "" {
		return &v
	}
	return nil
}

// description special-cases the precedence: a structured value that already
// looks like markup is used as-is; otherwise a DOM-extracted HTML block is
// preferred; plain text is wrapped in a minimal markup wrapper as the last
// resort.
func description(structured, dom string) *string {
	structured = strings.TrimSpace(structured)
	dom = strings.TrimSpace(dom)

	if structured != "" && tagPattern.MatchString(structured) {
		return &structured
	}
	if dom != "" {
		return &dom
	}
	if structured != "" {
		wrapped := "<p>" + html.EscapeString(structured) + "</p>"
		return &wrapped
	}
	return nil
}
