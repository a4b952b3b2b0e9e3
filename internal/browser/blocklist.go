package browser

import "strings"

// defaultBlockedMedia lists URL patterns for heavy sub-resources that slow
// page loads without affecting extraction. Stylesheets must never appear
// here; hiding them can change which elements the probes consider visible.
var defaultBlockedMedia = []string{
	"*.mp4", "*.webm", "*.m4v", "*.mov", "*.avi",
	"*.mp3", "*.wav", "*.ogg", "*.flac",
	"*.woff", "*.woff2", "*.ttf", "*.otf",
}

// resourceBlocklist holds the URL patterns handed to the network layer.
type resourceBlocklist struct {
	patterns []string
}

func newResourceBlocklist(patterns []string) *resourceBlocklist {
	if len(patterns) == 0 {
		patterns = defaultBlockedMedia
	}
	matcher := &resourceBlocklist{}
	for _, raw := range patterns {
		value := strings.TrimSpace(strings.ToLower(raw))
		if value == "" {
			continue
		}
		if strings.HasSuffix(value, ".css") || strings.Contains(value, "stylesheet") {
			continue
		}
		matcher.add(value)
	}
	if len(matcher.patterns) == 0 {
		return nil
	}
	return matcher
}

func (b *resourceBlocklist) add(pattern string) {
	for _, existing := range b.patterns {
		if existing == pattern {
			return
		}
	}
	b.patterns = append(b.patterns, pattern)
}

// Patterns returns the blocked URL patterns, nil when blocking is disabled.
func (b *resourceBlocklist) Patterns() []string {
	if b == nil {
		return nil
	}
	return b.patterns
}
