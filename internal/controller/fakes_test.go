package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tlareau/jobsift/internal/extract"
	"github.com/tlareau/jobsift/internal/scrape"
)

// fakeBrowser serves canned markup keyed by URL through fake pages. Entries
// in navFailures make the next n navigations to that URL fail with navErr
// before the document loads normally.
type fakeBrowser struct {
	mu          sync.Mutex
	docs        map[string]string
	navFailures map[string]int
	navErr      error
	pages       int
}

func newFakeBrowser(docs map[string]string) *fakeBrowser {
	return &fakeBrowser{docs: docs}
}

func (b *fakeBrowser) failNavigations(url string, times int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.navFailures == nil {
		b.navFailures = make(map[string]int)
	}
	b.navFailures[url] = times
	b.navErr = err
}

func (b *fakeBrowser) NewPage(context.Context) (scrape.DocumentPage, error) {
	b.mu.Lock()
	b.pages++
	b.mu.Unlock()
	return &fakePage{browser: b}, nil
}

func (b *fakeBrowser) Close(context.Context) error { return nil }

func (b *fakeBrowser) openedPages() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pages
}

// fakePage replays static markup through the same prober the production
// static path uses, so selector behavior matches the real extraction tiers.
type fakePage struct {
	browser *fakeBrowser
	mu      sync.Mutex
	prober  *extract.StaticProber
	url     string
	markup  string
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.browser.mu.Lock()
	if remaining := p.browser.navFailures[url]; remaining > 0 {
		p.browser.navFailures[url] = remaining - 1
		err := p.browser.navErr
		p.browser.mu.Unlock()
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	markup, ok := p.browser.docs[url]
	p.browser.mu.Unlock()
	if !ok {
		return fmt.Errorf("no document for %s", url)
	}
	prober, err := extract.NewStaticProber(markup)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.prober = prober
	p.url = url
	p.markup = markup
	p.mu.Unlock()
	return nil
}

func (p *fakePage) currentProber() (*extract.StaticProber, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.prober == nil {
		return nil, fmt.Errorf("page not navigated")
	}
	return p.prober, nil
}

func (p *fakePage) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	prober, err := p.currentProber()
	if err != nil {
		return err
	}
	blocks, err := prober.Blocks(ctx, selector)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		return fmt.Errorf("selector %q never became visible", selector)
	}
	return nil
}

func (p *fakePage) ScrollBy(context.Context, int) error { return nil }

func (p *fakePage) Click(context.Context, string) error { return nil }

func (p *fakePage) Evaluate(context.Context, string, any) error { return nil }

func (p *fakePage) URL(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url, nil
}

func (p *fakePage) Markup(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.markup, nil
}

func (p *fakePage) Screenshot(context.Context) ([]byte, error) {
	return []byte("png"), nil
}

func (p *fakePage) Close() error { return nil }

func (p *fakePage) Text(ctx context.Context, selector string) (string, error) {
	prober, err := p.currentProber()
	if err != nil {
		return "", err
	}
	return prober.Text(ctx, selector)
}

func (p *fakePage) HTML(ctx context.Context, selector string) (string, error) {
	prober, err := p.currentProber()
	if err != nil {
		return "", err
	}
	return prober.HTML(ctx, selector)
}

func (p *fakePage) BodyText(ctx context.Context) (string, error) {
	prober, err := p.currentProber()
	if err != nil {
		return "", err
	}
	return prober.BodyText(ctx)
}

func (p *fakePage) Anchors(ctx context.Context) ([]scrape.Anchor, error) {
	prober, err := p.currentProber()
	if err != nil {
		return nil, err
	}
	return prober.Anchors(ctx)
}

func (p *fakePage) Blocks(ctx context.Context, selector string) ([]string, error) {
	prober, err := p.currentProber()
	if err != nil {
		return nil, err
	}
	return prober.Blocks(ctx, selector)
}

// fakeFetcher serves static bodies keyed by URL.
type fakeFetcher struct {
	bodies map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (scrape.FetchResult, error) {
	body, ok := f.bodies[url]
	if !ok {
		return scrape.FetchResult{}, fmt.Errorf("fetch %s: not found", url)
	}
	return scrape.FetchResult{URL: url, StatusCode: 200, Body: []byte(body)}, nil
}

// fakeArtifacts records every save for assertions.
type fakeArtifacts struct {
	mu    sync.Mutex
	paths []string
}

func (a *fakeArtifacts) Save(_ context.Context, path, _ string, _ []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paths = append(a.paths, path)
	return "fake://" + path, nil
}

func (a *fakeArtifacts) saved() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.paths...)
}

// noopPauser removes politeness waits from tests.
type noopPauser struct{}

func (noopPauser) Pause(context.Context, time.Duration) {}
