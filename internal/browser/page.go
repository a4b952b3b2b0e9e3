package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/tlareau/jobsift/internal/scrape"
)

// Tab wraps one browser tab. It satisfies scrape.Page for navigation and
// scrape.Prober for document probing.
type Tab struct {
	browser *Browser
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
}

func (t *Tab) setup(ctx context.Context) error {
	actions := []chromedp.Action{network.Enable()}
	if t.browser.userAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(t.browser.userAgent))
	}
	if patterns := t.browser.blocked.Patterns(); len(patterns) > 0 {
		actions = append(actions, network.SetBlockedURLs(patterns))
	}
	if err := t.run(ctx, t.browser.navTimeout, actions...); err != nil {
		return fmt.Errorf("tab setup: %w", err)
	}
	return nil
}

// Navigate loads the URL and waits for the document body, honoring the
// per-domain rate budget first.
func (t *Tab) Navigate(ctx context.Context, url string) error {
	if err := t.browser.waitDomainBudget(ctx, url); err != nil {
		return err
	}
	err := t.run(ctx, t.browser.navTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// WaitVisible blocks until the selector matches a visible element or the
// timeout elapses.
func (t *Tab) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	err := t.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if err != nil {
		return fmt.Errorf("wait visible %q: %w", selector, err)
	}
	return nil
}

// ScrollBy scrolls the window vertically.
func (t *Tab) ScrollBy(ctx context.Context, deltaY int) error {
	expr := fmt.Sprintf("window.scrollBy(0, %d)", deltaY)
	if err := t.run(ctx, t.browser.navTimeout, chromedp.Evaluate(expr, nil)); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return nil
}

// Click dispatches a click on the first match if one exists. A missing
// element is not an error; consent overlays are dismissed best-effort.
func (t *Tab) Click(ctx context.Context, selector string) error {
	expr := clickScript(selector)
	if err := t.run(ctx, t.browser.navTimeout, chromedp.Evaluate(expr, nil)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

// Evaluate runs the expression in page context.
func (t *Tab) Evaluate(ctx context.Context, expr string, out any) error {
	if err := t.run(ctx, t.browser.navTimeout, chromedp.Evaluate(expr, out)); err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	return nil
}

// URL returns the tab's current location.
func (t *Tab) URL(ctx context.Context) (string, error) {
	var loc string
	if err := t.run(ctx, t.browser.navTimeout, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return loc, nil
}

// Markup returns the rendered document markup.
func (t *Tab) Markup(ctx context.Context) (string, error) {
	var markup string
	err := t.run(ctx, t.browser.navTimeout, chromedp.OuterHTML("html", &markup, chromedp.ByQuery))
	if err != nil {
		return "", fmt.Errorf("read outer html: %w", err)
	}
	return markup, nil
}

// Screenshot captures a full-page PNG. Quality 100 makes chromedp request
// PNG encoding; anything lower produces JPEG, which would not match the
// artifact's .png name and image/png content type.
func (t *Tab) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := t.run(ctx, t.browser.navTimeout, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

// Close releases the tab and its concurrency slot.
func (t *Tab) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.cancel()
	t.browser.releaseTab()
	return nil
}

// Text implements scrape.Prober across shadow roots and same-origin frames.
func (t *Tab) Text(ctx context.Context, selector string) (string, error) {
	var out string
	if err := t.Evaluate(ctx, probeScript(selector, "text"), &out); err != nil {
		return "", err
	}
	return out, nil
}

// HTML returns the outer markup of the first match.
func (t *Tab) HTML(ctx context.Context, selector string) (string, error) {
	var out string
	if err := t.Evaluate(ctx, probeScript(selector, "html"), &out); err != nil {
		return "", err
	}
	return out, nil
}

// BodyText returns the visible text of the document and reachable subtrees.
func (t *Tab) BodyText(ctx context.Context) (string, error) {
	var out string
	if err := t.Evaluate(ctx, bodyTextScript, &out); err != nil {
		return "", err
	}
	return out, nil
}

// Anchors returns every hyperlink reachable from the document, including
// links inside shadow trees and same-origin nested documents.
func (t *Tab) Anchors(ctx context.Context) ([]scrape.Anchor, error) {
	var raw []struct {
		Href string `json:"href"`
		Text string `json:"text"`
	}
	if err := t.Evaluate(ctx, anchorsScript, &raw); err != nil {
		return nil, err
	}
	anchors := make([]scrape.Anchor, 0, len(raw))
	for _, a := range raw {
		anchors = append(anchors, scrape.Anchor{Href: a.Href, Text: a.Text})
	}
	return anchors, nil
}

// Blocks returns the raw content of every match in document order.
func (t *Tab) Blocks(ctx context.Context, selector string) ([]string, error) {
	var out []string
	if err := t.Evaluate(ctx, blocksScript(selector), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// run executes actions against the tab with a deadline, forwarding
// cancellation from the caller's context.
func (t *Tab) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(t.ctx, timeout)
	defer cancel()

	stop := forwardCancel(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
