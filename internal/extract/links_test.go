package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLinkCollector_Collect(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
		<a href="/job-detail/aaa?searchId=1">Job A</a>
		<a href="/job-detail/bbb">Job B</a>
		<a href="/job-detail/aaa?searchId=2">Job A again</a>
		<a href="https://www.dice.com/job-detail/ccc#top">Job C</a>
		<a href="/company/initech">Not a job</a>
		<a href="/jobs?page=2">Pagination</a>
	</body></html>`

	collector := NewLinkCollector(DefaultProfile())
	links, err := collector.Collect(context.Background(), newProber(t, markup), "https://www.dice.com/jobs?q=admin")
	require.NoError(t, err)
	require.Equal(t, []Link{
		{URL: "https://www.dice.com/job-detail/aaa", Title: "Job A"},
		{URL: "https://www.dice.com/job-detail/bbb", Title: "Job B"},
		{URL: "https://www.dice.com/job-detail/ccc", Title: "Job C"},
	}, links)
}

func TestLinkCollector_EmptyListingIsNotAnError(t *testing.T) {
	t.Parallel()

	collector := NewLinkCollector(DefaultProfile())
	links, err := collector.Collect(context.Background(), newProber(t, "<html><body></body></html>"), "https://www.dice.com/jobs")
	require.NoError(t, err)
	require.Empty(t, links)
}
