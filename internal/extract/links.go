package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/tlareau/jobsift/internal/scrape"
)

// Link is one harvested detail link together with the anchor text that
// surfaced it. The text rides along as listing-card context for pages where
// every extraction tier comes up empty.
type Link struct {
	URL   string
	Title string
}

// LinkCollector gathers detail-page links from a listing document.
type LinkCollector struct {
	profile SiteProfile
}

// NewLinkCollector builds a collector for one site profile.
func NewLinkCollector(profile SiteProfile) *LinkCollector {
	return &LinkCollector{profile: profile}
}

// Collect returns the absolute, canonicalized detail links found in the
// document, in discovery order and de-duplicated. An empty listing yields an
// empty slice, not an error; an exhausted page is a legitimate terminal
// state. Anchors that fail to parse are skipped.
func (c *LinkCollector) Collect(ctx context.Context, p scrape.Prober, pageURL string) ([]Link, error) {
	anchors, err := p.Anchors(ctx)
	if err != nil {
		return nil, fmt.Errorf("walk anchors: %w", err)
	}
	seen := make(map[string]struct{}, len(anchors))
	var out []Link
	for _, anchor := range anchors {
		if anchor.Href == "" || !c.profile.DetailLinkPattern.MatchString(anchor.Href) {
			continue
		}
		canonical, err := scrape.CanonicalDetailURL(pageURL, anchor.Href)
		if err != nil {
			continue
		}
		if !c.profile.DetailLinkPattern.MatchString(canonical) {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, Link{URL: canonical, Title: strings.TrimSpace(anchor.Text)})
	}
	return out, nil
}
