package browser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResourceBlocklist_Defaults(t *testing.T) {
	t.Parallel()

	b := newResourceBlocklist(nil)
	require.NotNil(t, b)
	require.Contains(t, b.Patterns(), "*.mp4")
	require.NotContains(t, b.Patterns(), "*.css")
}

func TestResourceBlocklist_NeverBlocksStylesheets(t *testing.T) {
	t.Parallel()

	b := newResourceBlocklist([]string{"*.mp4", "*.CSS", "*stylesheet*", "  "})
	require.NotNil(t, b)
	require.Equal(t, []string{"*.mp4"}, b.Patterns())
}

func TestResourceBlocklist_DropsDuplicates(t *testing.T) {
	t.Parallel()

	b := newResourceBlocklist([]string{"*.mp4", "*.MP4", "*.webm"})
	require.Equal(t, []string{"*.mp4", "*.webm"}, b.Patterns())
}

func TestResourceBlocklist_EmptyDisablesBlocking(t *testing.T) {
	t.Parallel()

	b := newResourceBlocklist([]string{"*.css"})
	require.Nil(t, b)
	require.Nil(t, b.Patterns())
}
