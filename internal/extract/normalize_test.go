package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tlareau/jobsift/internal/scrape"
)

func strValue(t *testing.T, p *string) string {
	t.Helper()
	require.NotNil(t, p)
	return *p
}

func TestNormalize_StructuredWinsPerField(t *testing.T) {
	t.Parallel()

	structured := &scrape.Fragment{
		Title:    "Structured Title",
		Company:  "Structured Co",
		Location: "Austin, TX, US",
	}
	dom := scrape.Fragment{
		Title:      "DOM Title",
		Company:    "DOM Co",
		Location:   "Somewhere",
		PostedDate: "3 days ago",
	}

	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	rec := Normalize("https://example.com/job-detail/x", structured, dom, at)

	require.Equal(t, "Structured Title", strValue(t, rec.Title))
	require.Equal(t, "Structured Co", strValue(t, rec.Company))
	require.Equal(t, "Austin, TX, US", strValue(t, rec.Location))
	require.Equal(t, "3 days ago", strValue(t, rec.PostedDate))
	require.Nil(t, rec.EmploymentType)
	require.Equal(t, at, rec.ScrapedAt)
}

func TestNormalize_DescriptionPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		structured string
		dom        string
		want       string
		wantNil    bool
	}{
		{
			name:       "structured markup used as-is",
			structured: "<p>Already HTML</p>",
			dom:        "<div>other</div>",
			want:       "<p>Already HTML</p>",
		},
		{
			name:       "plain structured text loses to DOM block",
			structured: "plain words",
			dom:        "<div><p>Rendered block</p></div>",
			want:       "<div><p>Rendered block</p></div>",
		},
		{
			name:       "plain text wrapped as last resort",
			structured: "5 < 6 & counting",
			want:       "<p>5 &lt; 6 &amp; counting</p>",
		},
		{
			name:    "nothing yields null",
			wantNil: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			rec := Normalize(
				"https://example.com/job-detail/x",
				&scrape.Fragment{Description: tc.structured},
				scrape.Fragment{Description: tc.dom},
				time.Unix(0, 0),
			)
			if tc.wantNil {
				require.Nil(t, rec.DescriptionHTML)
				return
			}
			require.Equal(t, tc.want, strValue(t, rec.DescriptionHTML))
		})
	}
}

func TestNormalize_EmptyStringsBecomeNulls(t *testing.T) {
	t.Parallel()

	rec := Normalize(
		"https://example.com/job-detail/x",
		&scrape.Fragment{Title: "   ", Company: "\n"},
		scrape.Fragment{Location: "  "},
		time.Unix(0, 0),
	)
	require.Nil(t, rec.Title)
	require.Nil(t, rec.Company)
	require.Nil(t, rec.Location)
	require.Equal(t, "https://example.com/job-detail/x", rec.SourceURL)
}

func TestNormalize_NilStructuredFragment(t *testing.T) {
	t.Parallel()

	rec := Normalize(
		"https://example.com/job-detail/x",
		nil,
		scrape.Fragment{Title: "From DOM"},
		time.Unix(0, 0),
	)
	require.Equal(t, "From DOM", strValue(t, rec.Title))
}

// Re-running extraction on identical inputs must yield identical records.
func TestNormalize_Deterministic(t *testing.T) {
	t.Parallel()

	structured := &scrape.Fragment{Title: "T", Description: "plain"}
	dom := scrape.Fragment{Company: "C"}
	at := time.Unix(1000, 0).UTC()

	first := Normalize("https://example.com/j", structured, dom, at)
	second := Normalize("https://example.com/j", structured, dom, at)
	require.Equal(t, first, second)
}
