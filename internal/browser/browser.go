// Package browser implements the scrape.Browser contract
// on top of headless Chrome via chromedp.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tlareau/jobsift/internal/scrape"
)

// Config controls the shared browser process.
type Config struct {
	UserAgent      string
	MaxTabs        int
	NavTimeout     time.Duration
	DomainQPS      float64
	BlockedMedia   []string
	Headless       bool
	WindowWidth    int
	WindowHeight   int
	ExtraChromeArg map[string]any
}

// Browser owns one Chrome process and hands out tabs.
type Browser struct {
	allocatorCancel context.CancelFunc
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	logger          *zap.Logger
	sem             chan struct{}
	navTimeout      time.Duration
	userAgent       string
	blocked         *resourceBlocklist
	domainQPS       float64
	domainLimiters  sync.Map
}

// New launches the browser process and verifies it responds.
func New(cfg Config, logger *zap.Logger) (*Browser, error) {
	if cfg.MaxTabs <= 0 {
		cfg.MaxTabs = 4
	}
	if cfg.NavTimeout <= 0 {
		cfg.NavTimeout = 30 * time.Second
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.WindowWidth > 0 && cfg.WindowHeight > 0 {
		opts = append(opts, chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight))
	}
	for flag, value := range cfg.ExtraChromeArg {
		opts = append(opts, chromedp.Flag(flag, value))
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}

	return &Browser{
		allocatorCancel: allocatorCancel,
		browserCtx:      browserCtx,
		browserCancel:   browserCancel,
		logger:          logger,
		sem:             make(chan struct{}, cfg.MaxTabs),
		navTimeout:      cfg.NavTimeout,
		userAgent:       cfg.UserAgent,
		blocked:         newResourceBlocklist(cfg.BlockedMedia),
		domainQPS:       cfg.DomainQPS,
	}, nil
}

// NewPage opens a tab, waiting for a slot when the tab cap is reached.
func (b *Browser) NewPage(ctx context.Context) (scrape.DocumentPage, error) {
	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire tab slot: %w", ctx.Err())
	}

	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	tab := &Tab{
		browser: b,
		ctx:     tabCtx,
		cancel:  tabCancel,
	}
	if err := tab.setup(ctx); err != nil {
		tab.Close()
		return nil, err
	}
	return tab, nil
}

// Close tears down the browser process.
func (b *Browser) Close(_ context.Context) error {
	if b == nil {
		return nil
	}
	b.browserCancel()
	b.allocatorCancel()
	return nil
}

func (b *Browser) releaseTab() {
	select {
	case <-b.sem:
	default:
	}
}

// waitDomainBudget blocks until the per-domain limiter admits the navigation.
func (b *Browser) waitDomainBudget(ctx context.Context, rawURL string) error {
	if b.domainQPS <= 0 {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse navigation url: %w", err)
	}
	host := strings.ToLower(parsed.Host)
	val, _ := b.domainLimiters.LoadOrStore(host, rate.NewLimiter(rate.Limit(b.domainQPS), 1))
	limiter, ok := val.(*rate.Limiter)
	if !ok {
		return fmt.Errorf("unexpected limiter type %T", val)
	}
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait domain limiter: %w", err)
	}
	return nil
}
