package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const jobPostingBlock = `{
	"@context": "https://schema.org/",
	"@type": "JobPosting",
	"title": "Database Administrator",
	"description": "<p>Run the databases.</p>",
	"datePosted": "2026-08-01",
	"validThrough": "2026-09-30",
	"hiringOrganization": {"@type": "Organization", "name": "Initech"},
	"jobLocation": {"@type": "Place", "address": {
		"@type": "PostalAddress",
		"addressLocality": "Austin",
		"addressRegion": "TX",
		"addressCountry": "US"
	}},
	"employmentType": ["Full-time", "Full-time"],
	"identifier": {"@type": "PropertyValue", "value": "req-4471"}
}`

func TestParseStructuredBlocks_JobPosting(t *testing.T) {
	t.Parallel()

	frag := ParseStructuredBlocks([]string{jobPostingBlock})
	require.NotNil(t, frag)
	require.Equal(t, "Database Administrator", frag.Title)
	require.Equal(t, "<p>Run the databases.</p>", frag.Description)
	require.Equal(t, "2026-08-01", frag.PostedDate)
	require.Equal(t, "2026-09-30", frag.ValidThrough)
	require.Equal(t, "Initech", frag.Company)
	require.Equal(t, "Austin, TX, US", frag.Location)
	require.Equal(t, "Full-time", frag.EmploymentType)
	require.Equal(t, "req-4471", frag.ExternalID)
}

func TestParseStructuredBlocks_SkipsMalformedAndNonPosting(t *testing.T) {
	t.Parallel()

	blocks := []string{
		`{not json at all`,
		`{"@type": "BreadcrumbList", "itemListElement": []}`,
		jobPostingBlock,
	}
	frag := ParseStructuredBlocks(blocks)
	require.NotNil(t, frag)
	require.Equal(t, "Database Administrator", frag.Title)
}

func TestParseStructuredBlocks_ArrayAndMainEntity(t *testing.T) {
	t.Parallel()

	t.Run("top-level array", func(t *testing.T) {
		t.Parallel()
		frag := ParseStructuredBlocks([]string{`[
			{"@type": "WebSite", "name": "board"},
			{"@type": "JobPosting", "title": "SRE"}
		]`})
		require.NotNil(t, frag)
		require.Equal(t, "SRE", frag.Title)
	})

	t.Run("mainEntity wrapper", func(t *testing.T) {
		t.Parallel()
		frag := ParseStructuredBlocks([]string{`{
			"@type": "WebPage",
			"mainEntity": {"@type": "JobPosting", "title": "Platform Engineer"}
		}`})
		require.NotNil(t, frag)
		require.Equal(t, "Platform Engineer", frag.Title)
	})

	t.Run("type list", func(t *testing.T) {
		t.Parallel()
		frag := ParseStructuredBlocks([]string{`{
			"@type": ["JobPosting", "Thing"],
			"title": "Analyst"
		}`})
		require.NotNil(t, frag)
		require.Equal(t, "Analyst", frag.Title)
	})
}

func TestParseStructuredBlocks_NoQualifyingBlock(t *testing.T) {
	t.Parallel()

	require.Nil(t, ParseStructuredBlocks(nil))
	require.Nil(t, ParseStructuredBlocks([]string{"", "   "}))
	require.Nil(t, ParseStructuredBlocks([]string{`{"@type": "Article"}`}))
}

func TestParseStructuredBlocks_FieldShapes(t *testing.T) {
	t.Parallel()

	frag := ParseStructuredBlocks([]string{`{
		"@type": "JobPosting",
		"hiringOrganization": "Globex",
		"jobLocation": [{"@type": "Place", "address": {
			"addressLocality": "Remote",
			"addressCountry": {"@type": "Country", "name": "US"}
		}}],
		"employmentType": "CONTRACTOR",
		"identifier": "plain-id"
	}`})
	require.NotNil(t, frag)
	require.Equal(t, "Globex", frag.Company)
	require.Equal(t, "Remote, US", frag.Location)
	require.Equal(t, "CONTRACTOR", frag.EmploymentType)
	require.Equal(t, "plain-id", frag.ExternalID)
}
