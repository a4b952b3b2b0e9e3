// Package controller owns the run lifecycle: it seeds the listing search,
// drives serialized listing discovery, fans detail tasks out to a bounded
// worker pool, and reports a summary when the run terminates.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	clocksystem "github.com/tlareau/jobsift/internal/clock/system"
	"github.com/tlareau/jobsift/internal/detector"
	"github.com/tlareau/jobsift/internal/extract"
	iduuid "github.com/tlareau/jobsift/internal/id/uuid"
	"github.com/tlareau/jobsift/internal/metrics"
	"github.com/tlareau/jobsift/internal/progress"
	"github.com/tlareau/jobsift/internal/queue"
	"github.com/tlareau/jobsift/internal/scrape"
)

// Config tunes the run controller. Zero values fall back to defaults.
type Config struct {
	// DetailWorkers is the size of the detail worker pool.
	DetailWorkers int
	// QueueCapacity bounds the detail task queue.
	QueueCapacity int
	// MaxListingPages caps how many listing pages one run will walk.
	MaxListingPages int
	// MaxScrollPasses caps the scroll-and-recount loop per listing page.
	MaxScrollPasses int
	// ScrollStep is the per-pass vertical scroll in pixels.
	ScrollStep int
	// ScrollSettle is the wait after each scroll before recounting.
	ScrollSettle time.Duration
	// MarkerTimeout bounds the wait for listing content markers.
	MarkerTimeout time.Duration
	// TaskTimeout bounds one detail task attempt end to end.
	TaskTimeout time.Duration
	// MaxAttempts bounds detail task retries, first try included.
	MaxAttempts int
	// DetailDelay is the politeness pause before each detail visit.
	DetailDelay time.Duration
	// PublishTopic names the completion-event topic; empty disables publishing.
	PublishTopic string
	// ArtifactPrefix is the path prefix for debug artifacts.
	ArtifactPrefix string
}

func (c Config) withDefaults() Config {
	if c.DetailWorkers <= 0 {
		c.DetailWorkers = 4
	}
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 2 * scrape.MaxTargetCount
	}
	if c.MaxListingPages <= 0 {
		c.MaxListingPages = 20
	}
	if c.MaxScrollPasses <= 0 {
		c.MaxScrollPasses = 12
	}
	if c.ScrollStep <= 0 {
		c.ScrollStep = 1600
	}
	if c.ScrollSettle <= 0 {
		c.ScrollSettle = 600 * time.Millisecond
	}
	if c.MarkerTimeout <= 0 {
		c.MarkerTimeout = 10 * time.Second
	}
	if c.TaskTimeout <= 0 {
		c.TaskTimeout = 45 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.ArtifactPrefix == "" {
		c.ArtifactPrefix = "debug"
	}
	return c
}

// Deps are the collaborators a Controller drives. Browser and Sink are
// required; the rest degrade gracefully when absent.
type Deps struct {
	Profile   extract.SiteProfile
	Browser   scrape.Browser
	Fetcher   scrape.Fetcher
	Detector  *detector.Heuristic
	Sink      scrape.RecordSink
	Artifacts scrape.ArtifactStore
	Publisher scrape.Publisher
	Progress  progress.Emitter
	Clock     scrape.Clock
	Logger    *zap.Logger
}

// Controller executes one scrape run at a time.
type Controller struct {
	cfg       Config
	profile   extract.SiteProfile
	browser   scrape.Browser
	fetcher   scrape.Fetcher
	detector  *detector.Heuristic
	sink      scrape.RecordSink
	artifacts scrape.ArtifactStore
	publisher scrape.Publisher
	emitter   progress.Emitter
	clock     scrape.Clock
	logger    *zap.Logger

	links *extract.LinkCollector
	dom   *extract.DOMExtractor
	retry *retryPolicy
	pause pauser
	ids   *iduuid.Generator

	mu      sync.Mutex
	runID   uuid.UUID
	summary scrape.RunSummary
}

// New validates the dependencies and builds a Controller.
func New(cfg Config, deps Deps) (*Controller, error) {
	if deps.Browser == nil {
		return nil, fmt.Errorf("browser is required")
	}
	if deps.Sink == nil {
		return nil, fmt.Errorf("record sink is required")
	}
	if deps.Profile.BaseURL == "" {
		deps.Profile = extract.DefaultProfile()
	}
	if deps.Clock == nil {
		deps.Clock = clocksystem.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	metrics.Init()
	return &Controller{
		cfg:       cfg,
		profile:   deps.Profile,
		browser:   deps.Browser,
		fetcher:   deps.Fetcher,
		detector:  deps.Detector,
		sink:      deps.Sink,
		artifacts: deps.Artifacts,
		publisher: deps.Publisher,
		emitter:   deps.Progress,
		clock:     deps.Clock,
		logger:    deps.Logger,
		links:     extract.NewLinkCollector(deps.Profile),
		dom:       extract.NewDOMExtractor(deps.Profile),
		retry:     newRetryPolicy(cfg.MaxAttempts),
		pause:     timerPauser{},
		ids:       iduuid.New(),
	}, nil
}

// Run executes the full listing-then-detail pipeline for one request and
// blocks until every in-flight detail task has drained. The returned summary
// is final; partial results already appended to the sink are kept even when
// the run ends early.
func (c *Controller) Run(ctx context.Context, req scrape.SearchRequest) (scrape.RunSummary, error) {
	if err := req.Validate(); err != nil {
		return scrape.RunSummary{}, err
	}
	req = req.Clamped()

	searchURL, err := scrape.BuildSearchURL(c.profile.BaseURL, req)
	if err != nil {
		return scrape.RunSummary{}, fmt.Errorf("seed search url: %w", err)
	}

	runID, err := c.ids.NewRawID()
	if err != nil {
		return scrape.RunSummary{}, fmt.Errorf("allocate run id: %w", err)
	}
	started := c.clock.Now().UTC()
	c.beginRun(runID, req, started)
	c.emit(progress.StageRunStart, nil)
	c.logger.Info("run started",
		zap.String("run_id", runID.String()),
		zap.String("keyword", req.Keyword),
		zap.Int("target", req.TargetCount),
		zap.String("search_url", searchURL),
	)

	tasks := queue.NewMemory(c.cfg.QueueCapacity)
	seen := newSeenSet()
	bud := newBudget(req.TargetCount)

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.DetailWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.detailWorker(ctx, tasks, bud)
		}()
	}

	listingErr := c.runListings(ctx, tasks, seen, bud, searchURL)

	c.setState(scrape.RunDetail)
	tasks.Close()
	wg.Wait()

	finished := c.clock.Now().UTC()
	summary := c.finishRun(finished, ctx.Err(), listingErr)

	switch {
	case ctx.Err() != nil:
		c.emit(progress.StageRunError, func(e *progress.Event) {
			e.Dur = finished.Sub(started)
			e.Note = ctx.Err().Error()
		})
		return summary, fmt.Errorf("run interrupted: %w", ctx.Err())
	case summary.State == scrape.RunFailed:
		c.emit(progress.StageRunError, func(e *progress.Event) {
			e.Dur = finished.Sub(started)
			e.Note = listingErr.Error()
		})
		return summary, fmt.Errorf("listing discovery: %w", listingErr)
	default:
		c.emit(progress.StageRunDone, func(e *progress.Event) {
			e.Dur = finished.Sub(started)
			e.Records = int64(summary.Collected)
		})
		c.logger.Info("run finished",
			zap.String("run_id", summary.RunID),
			zap.Int("collected", summary.Collected),
			zap.Int("enqueued", summary.Enqueued),
			zap.Int("failed", summary.Failed),
			zap.Int("listing_pages", summary.ListingPages),
		)
		return summary, nil
	}
}

// Summary returns a snapshot of the current run state for the status server.
func (c *Controller) Summary() scrape.RunSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

func (c *Controller) beginRun(runID uuid.UUID, req scrape.SearchRequest, started time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runID = runID
	c.summary = scrape.RunSummary{
		RunID:   runID.String(),
		Keyword: req.Keyword,
		State:   scrape.RunSeeded,
		Started: started,
	}
}

// finishRun decides the terminal state. A run fails only when it was
// interrupted or when discovery produced no work at all; partial supply is a
// normal completion.
func (c *Controller) finishRun(finished time.Time, ctxErr, listingErr error) scrape.RunSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case ctxErr != nil:
		c.summary.State = scrape.RunFailed
	case listingErr != nil && c.summary.Enqueued == 0:
		c.summary.State = scrape.RunFailed
	default:
		c.summary.State = scrape.RunDone
	}
	c.summary.Finished = &finished
	return c.summary
}

func (c *Controller) setState(state scrape.RunState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.summary.State != scrape.RunDone && c.summary.State != scrape.RunFailed {
		c.summary.State = state
	}
}

func (c *Controller) noteListing(enqueued int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary.ListingPages++
	c.summary.Enqueued += enqueued
}

func (c *Controller) noteCollected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary.Collected++
}

func (c *Controller) noteFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary.Failed++
}

func (c *Controller) emit(stage progress.Stage, mut func(*progress.Event)) {
	if c.emitter == nil {
		return
	}
	c.mu.Lock()
	runID := c.runID
	c.mu.Unlock()
	evt := progress.Event{
		RunID: progress.UUIDToBytes(runID),
		TS:    c.clock.Now().UTC(),
		Stage: stage,
	}
	if mut != nil {
		mut(&evt)
	}
	c.emitter.Emit(evt)
}
