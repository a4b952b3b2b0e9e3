package controller

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/tlareau/jobsift/internal/extract"
	"github.com/tlareau/jobsift/internal/metrics"
	"github.com/tlareau/jobsift/internal/progress"
	"github.com/tlareau/jobsift/internal/scrape"
)

// runListings walks listing pages serially, harvesting detail links and
// enqueueing them until the budget is covered, the pages run out, or the page
// cap is hit. A listing failure ends discovery without touching work already
// queued; it is returned so the run can be marked failed when nothing was
// enqueued at all.
func (c *Controller) runListings(ctx context.Context, tasks scrape.Queue, seen *seenSet, bud *budget, startURL string) error {
	c.setState(scrape.RunListing)
	pageURL := startURL
	for page := 0; page < c.cfg.MaxListingPages && pageURL != ""; page++ {
		if bud.remaining() <= 0 {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		next, err := c.scanListing(ctx, tasks, seen, bud, pageURL)
		if err != nil {
			metrics.ObserveDiscoveryFailure()
			metrics.ObserveListingPage("failed")
			c.logger.Warn("listing discovery failed",
				zap.String("url", pageURL),
				zap.Error(err),
			)
			return err
		}
		pageURL = next
	}
	return nil
}

// scanListing renders one listing page, scrolls it until the link count
// plateaus or covers the remaining budget, and enqueues the new links. It
// returns the next listing page URL, or "" when pagination is exhausted.
func (c *Controller) scanListing(ctx context.Context, tasks scrape.Queue, seen *seenSet, bud *budget, pageURL string) (string, error) {
	start := c.clock.Now()
	page, err := c.browser.NewPage(ctx)
	if err != nil {
		return "", fmt.Errorf("open listing tab: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(ctx, pageURL); err != nil {
		return "", err
	}
	c.dismissConsent(ctx, page)
	if err := c.waitForListing(ctx, page); err != nil {
		c.captureDebug(ctx, page, "listing")
		return "", err
	}

	links, err := c.harvestLinks(ctx, page, pageURL, bud)
	if err != nil {
		return "", err
	}

	enqueued := 0
	for _, link := range links {
		if bud.remaining() <= 0 {
			break
		}
		if !seen.MarkIfNew(link.URL) {
			continue
		}
		if !bud.claim() {
			break
		}
		task := scrape.CrawlTask{URL: link.URL, Kind: scrape.TaskDetail, Title: link.Title}
		if err := tasks.Enqueue(ctx, task); err != nil {
			bud.release()
			return "", fmt.Errorf("enqueue detail task: %w", err)
		}
		enqueued++
	}
	c.noteListing(enqueued)
	metrics.ObserveListingPage("completed")
	metrics.ObserveTaskDuration("listing", c.clock.Now().Sub(start))
	c.emit(progress.StageListingScanned, func(e *progress.Event) {
		e.URL = pageURL
		e.Links = int64(enqueued)
		e.Dur = c.clock.Now().Sub(start)
	})
	c.logger.Debug("listing scanned",
		zap.String("url", pageURL),
		zap.Int("links_found", len(links)),
		zap.Int("enqueued", enqueued),
	)

	if bud.remaining() <= 0 {
		return "", nil
	}
	return c.nextPageURL(ctx, page, pageURL), nil
}

// harvestLinks runs the scroll-and-recount loop. It stops early once the
// page has surfaced enough links to cover the open budget, or when two
// consecutive counts are equal, which marks an exhausted page.
func (c *Controller) harvestLinks(ctx context.Context, page scrape.DocumentPage, pageURL string, bud *budget) ([]extract.Link, error) {
	var links []extract.Link
	prev := -1
	for pass := 0; pass < c.cfg.MaxScrollPasses; pass++ {
		collected, err := c.links.Collect(ctx, page, pageURL)
		if err != nil {
			return nil, err
		}
		links = collected
		if rem := bud.remaining(); rem > 0 && len(links) >= rem {
			break
		}
		if len(links) == prev {
			break
		}
		prev = len(links)
		if err := page.ScrollBy(ctx, c.cfg.ScrollStep); err != nil {
			break
		}
		metrics.ObserveScrollPass()
		c.pause.Pause(ctx, c.cfg.ScrollSettle)
	}
	return links, nil
}

// waitForListing blocks until any listing content marker is visible. All
// markers missing within the timeout means the page never produced results.
func (c *Controller) waitForListing(ctx context.Context, page scrape.Page) error {
	markers := c.profile.ListingMarkers
	if len(markers) == 0 {
		return nil
	}
	perMarker := c.cfg.MarkerTimeout / time.Duration(len(markers))
	if perMarker < time.Second {
		perMarker = time.Second
	}
	var lastErr error
	for _, marker := range markers {
		err := page.WaitVisible(ctx, marker, perMarker)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("listing markers never appeared: %w", lastErr)
}

// dismissConsent clicks through known consent overlays. Every step is
// best-effort; a missing banner is the common case.
func (c *Controller) dismissConsent(ctx context.Context, page scrape.Page) {
	for _, sel := range c.profile.ConsentSelectors {
		if err := page.Click(ctx, sel); err != nil {
			c.logger.Debug("consent click failed", zap.String("selector", sel), zap.Error(err))
		}
	}
}

// nextPageURL resolves the next-page affordance, if any. The href keeps its
// query string; only detail links go through canonicalization.
func (c *Controller) nextPageURL(ctx context.Context, page scrape.DocumentPage, current string) string {
	for _, sel := range c.profile.NextPageSelectors {
		snippet, err := page.HTML(ctx, sel)
		if err != nil || snippet == "" {
			continue
		}
		href := hrefFromSnippet(snippet)
		if href == "" {
			continue
		}
		resolved, err := resolveHref(current, href)
		if err != nil {
			continue
		}
		return resolved
	}
	return ""
}

func hrefFromSnippet(snippet string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snippet))
	if err != nil {
		return ""
	}
	href, _ := doc.Find("a[href]").First().Attr("href")
	return strings.TrimSpace(href)
}

func resolveHref(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	resolved := baseURL.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", resolved.Scheme)
	}
	return resolved.String(), nil
}

// captureDebug saves the rendered markup and a screenshot for post-mortems.
// Failures are logged and swallowed; diagnostics never fail a run.
func (c *Controller) captureDebug(ctx context.Context, page scrape.Page, label string) {
	if c.artifacts == nil {
		return
	}
	c.mu.Lock()
	runID := c.runID.String()
	c.mu.Unlock()
	base := path.Join(c.cfg.ArtifactPrefix, runID, label)

	if markup, err := page.Markup(ctx); err == nil {
		if uri, err := c.artifacts.Save(ctx, base+".html", "text/html", []byte(markup)); err == nil {
			c.logger.Info("saved debug markup", zap.String("uri", uri))
		} else {
			c.logger.Warn("debug markup save failed", zap.Error(err))
		}
	}
	if shot, err := page.Screenshot(ctx); err == nil {
		if uri, err := c.artifacts.Save(ctx, base+".png", "image/png", shot); err == nil {
			c.logger.Info("saved debug screenshot", zap.String("uri", uri))
		} else {
			c.logger.Warn("debug screenshot save failed", zap.Error(err))
		}
	}
}
