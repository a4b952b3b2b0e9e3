package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/tlareau/jobsift/internal/scrape"
)

// employmentVocabulary is the fixed token set for the heuristic text scan,
// in output order. Multi-word spellings map onto the same canonical form.
var employmentVocabulary = []struct {
	token     string
	canonical string
}{
	{"full-time", "Full-time"},
	{"full time", "Full-time"},
	{"part-time", "Part-time"},
	{"part time", "Part-time"},
	{"contract", "Contract"},
	{"temporary", "Temporary"},
	{"internship", "Internship"},
	{"freelance", "Freelance"},
}

// DOMExtractor resolves fields from the document tree by trying ordered
// selector candidates, falling back to a text-scan heuristic for the
// employment type.
type DOMExtractor struct {
	profile SiteProfile
}

// NewDOMExtractor builds an extractor for one site profile.
func NewDOMExtractor(profile SiteProfile) *DOMExtractor {
	return &DOMExtractor{profile: profile}
}

// Field probes the selector candidates for the kind in precedence order and
// returns the first non-empty match. Description returns markup; all other
// kinds return text. An empty string means no tier matched.
func (e *DOMExtractor) Field(ctx context.Context, p scrape.Prober, kind FieldKind) (string, error) {
	for _, selector := range e.profile.Selectors[kind] {
		var (
			value string
			err   error
		)
		if kind == FieldDescription {
			value, err = p.HTML(ctx, selector)
		} else {
			value, err = p.Text(ctx, selector)
		}
		if err != nil {
			return "", fmt.Errorf("probe %s %q: %w", kind, selector, err)
		}
		if value = strings.TrimSpace(value); value != "" {
			return value, nil
		}
	}
	if kind == FieldEmploymentType {
		return e.employmentTypeScan(ctx, p)
	}
	return "", nil
}

// Fragment runs every field probe and assembles the DOM-tier fragment.
func (e *DOMExtractor) Fragment(ctx context.Context, p scrape.Prober) (scrape.Fragment, error) {
	var frag scrape.Fragment
	assign := map[FieldKind]*string{
		FieldTitle:          &frag.Title,
		FieldCompany:        &frag.Company,
		FieldLocation:       &frag.Location,
		FieldPostedDate:     &frag.PostedDate,
		FieldEmploymentType: &frag.EmploymentType,
		FieldDescription:    &frag.Description,
	}
	for _, kind := range []FieldKind{
		FieldTitle, FieldCompany, FieldLocation,
		FieldPostedDate, FieldEmploymentType, FieldDescription,
	} {
		value, err := e.Field(ctx, p, kind)
		if err != nil {
			return scrape.Fragment{}, err
		}
		*assign[kind] = value
	}
	return frag, nil
}

// employmentTypeScan is the last tier: scan the visible text for the fixed
// vocabulary, case-insensitively, and join the de-duplicated hits.
func (e *DOMExtractor) employmentTypeScan(ctx context.Context, p scrape.Prober) (string, error) {
	body, err := p.BodyText(ctx)
	if err != nil {
		return "", fmt.Errorf("read body text: %w", err)
	}
	return ScanEmploymentTypes(body), nil
}

// ScanEmploymentTypes reports the employment-type tokens present in text,
// joined with commas, or "" when none occur.
func ScanEmploymentTypes(text string) string {
	if text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	var out []string
	for _, entry := range employmentVocabulary {
		if !strings.Contains(lower, entry.token) {
			continue
		}
		if _, dup := seen[entry.canonical]; dup {
			continue
		}
		seen[entry.canonical] = struct{}{}
		out = append(out, entry.canonical)
	}
	return strings.Join(out, ", ")
}
