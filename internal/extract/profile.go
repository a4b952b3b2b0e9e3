// Package extract implements the tiered extraction pipeline: structured
// metadata first, DOM selector probes second, heuristic text scan last, plus
// detail-link collection and field normalization.
package extract

import "regexp"

// FieldKind identifies one extractable field for the DOM tier.
type FieldKind string

// Field kinds probed by the DOM extractor.
const (
	FieldTitle          FieldKind = "title"
	FieldCompany        FieldKind = "company"
	FieldLocation       FieldKind = "location"
	FieldPostedDate     FieldKind = "posted_date"
	FieldEmploymentType FieldKind = "employment_type"
	FieldDescription    FieldKind = "description"
)

// SiteProfile collects one board's structural conventions: where detail links
// point, which markers prove the listing rendered, and the ordered selector
// candidates per field. Selector order is precedence order; semantic
// attribute markers come before generic class and tag patterns.
type SiteProfile struct {
	BaseURL           string
	DetailLinkPattern *regexp.Regexp
	ListingMarkers    []string
	ConsentSelectors  []string
	NextPageSelectors []string
	Selectors         map[FieldKind][]string
}

// DefaultProfile returns the profile for the default target board.
func DefaultProfile() SiteProfile {
	return SiteProfile{
		BaseURL:           "https://www.dice.com/jobs",
		DetailLinkPattern: regexp.MustCompile(`/job-detail/`),
		ListingMarkers: []string{
			`[data-cy="search-card"]`,
			`dhi-search-card`,
			`a[href*="/job-detail/"]`,
		},
		ConsentSelectors: []string{
			`#onetrust-accept-btn-handler`,
			`button[aria-label="Accept"]`,
			`[data-testid="cookie-accept"]`,
		},
		NextPageSelectors: []string{
			`[data-cy="pagination-next-page"]`,
			`li.pagination-next a`,
		},
		Selectors: map[FieldKind][]string{
			FieldTitle: {
				`[data-cy="jobTitle"]`,
				`h1[data-testid="job-title"]`,
				`h1.job-title`,
				`h1`,
			},
			FieldCompany: {
				`[data-cy="companyNameLink"]`,
				`a[data-testid="company-name"]`,
				`.company-name`,
				`[class*="employer"]`,
			},
			FieldLocation: {
				`[data-cy="companyLocation"]`,
				`[data-testid="job-location"]`,
				`.job-location`,
				`li[class*="location"]`,
			},
			FieldPostedDate: {
				`[data-cy="postedDate"]`,
				`[data-testid="posted-date"]`,
				`.posted-date`,
				`time`,
			},
			FieldEmploymentType: {
				`[data-cy="employmentDetails"]`,
				`[data-testid="employment-type"]`,
				`.employment-type`,
			},
			FieldDescription: {
				`[data-testid="jobDescriptionHtml"]`,
				`[data-cy="jobDescription"]`,
				`#jobDescription`,
				`.job-description`,
				`article`,
			},
		},
	}
}
