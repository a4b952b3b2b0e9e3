package controller

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tlareau/jobsift/internal/extract"
	"github.com/tlareau/jobsift/internal/metrics"
	"github.com/tlareau/jobsift/internal/progress"
	"github.com/tlareau/jobsift/internal/scrape"
)

// detailWorker consumes detail tasks until the queue closes or the run
// context ends. Each worker owns at most one browser tab at a time.
func (c *Controller) detailWorker(ctx context.Context, tasks scrape.Queue, bud *budget) {
	for {
		task, err := tasks.Dequeue(ctx)
		if err != nil {
			return
		}
		metrics.IncActiveDetailWorkers()
		c.processDetail(ctx, task, bud)
		metrics.DecActiveDetailWorkers()
	}
}

// processDetail drives one task through its retry loop. A task that exhausts
// its attempts is abandoned: the budget slot is released so later listing
// pages can backfill, and the failure is logged without touching the run.
func (c *Controller) processDetail(ctx context.Context, task scrape.CrawlTask, bud *budget) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		start := c.clock.Now()
		err := c.visitDetail(ctx, task)
		metrics.ObserveTaskDuration("detail", c.clock.Now().Sub(start))
		if err == nil {
			metrics.ObserveDetailTask("completed")
			return
		}
		lastErr = err
		if !c.retry.ShouldRetry(ctx, err, attempt+1) {
			break
		}
		c.logger.Debug("detail task retrying",
			zap.String("url", task.URL),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		c.pause.Pause(ctx, c.retry.Backoff(attempt))
	}

	bud.release()
	c.noteFailure()
	metrics.ObserveDetailTask("failed")
	c.emit(progress.StageDetailError, func(e *progress.Event) {
		e.URL = task.URL
		e.Note = lastErr.Error()
	})
	c.logger.Warn("detail task abandoned",
		zap.String("url", task.URL),
		zap.Error(lastErr),
	)
}

// visitDetail runs the tiered extraction pipeline for one page: a static
// probe first, then a rendered pass only when the heuristic asks for it. A
// page where every tier comes up empty still emits an all-null record; the
// page was reached, there was just nothing to take.
func (c *Controller) visitDetail(ctx context.Context, task scrape.CrawlTask) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.TaskTimeout)
	defer cancel()

	c.pause.Pause(ctx, c.cfg.DetailDelay)
	start := c.clock.Now()
	c.emit(progress.StageDetailStart, func(e *progress.Event) { e.URL = task.URL })

	var (
		structured  *scrape.Fragment
		domFragment scrape.Fragment
		body        []byte
		statusClass = progress.StatusOther
	)
	if c.fetcher != nil {
		res, err := c.fetcher.Fetch(ctx, task.URL)
		if err != nil {
			c.logger.Debug("static probe failed", zap.String("url", task.URL), zap.Error(err))
		} else {
			body = res.Body
			statusClass = progress.ClassifyStatus(res.StatusCode)
			if prober, perr := extract.NewStaticProber(string(res.Body)); perr == nil {
				if frag, serr := extract.Structured(ctx, prober); serr == nil {
					structured = frag
				}
				if frag, derr := c.dom.Fragment(ctx, prober); derr == nil {
					domFragment = frag
				}
			}
		}
	}

	rendered := false
	if c.needsRender(body, structured) {
		rendered = true
		metrics.ObserveRenderPromotion()
		if err := c.renderDetail(ctx, task.URL, &structured, &domFragment); err != nil {
			return err
		}
	}

	record := extract.Normalize(task.URL, structured, domFragment, c.clock.Now().UTC())
	if record.Title == nil && task.Title != "" {
		// Listing-card context as a last resort for the title.
		title := task.Title
		record.Title = &title
	}
	if err := c.sink.Append(ctx, record); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	c.noteCollected()
	metrics.ObserveRecordEmitted()
	c.emit(progress.StageRecordEmitted, nil)
	c.emit(progress.StageDetailDone, func(e *progress.Event) {
		e.URL = task.URL
		e.Rendered = rendered
		e.StatusClass = statusClass
		e.Dur = c.clock.Now().Sub(start)
	})

	if c.publisher != nil && c.cfg.PublishTopic != "" {
		if _, err := c.publisher.Publish(ctx, c.cfg.PublishTopic, record); err != nil {
			c.logger.Warn("record publish failed", zap.String("url", task.URL), zap.Error(err))
		}
	}
	return nil
}

// needsRender decides whether the static probe was enough. No probe body at
// all always promotes to the browser.
func (c *Controller) needsRender(body []byte, structured *scrape.Fragment) bool {
	if len(body) == 0 {
		return true
	}
	return c.detector.NeedsRender(body, structured)
}

// renderDetail opens a tab and reruns the structured and DOM tiers against
// the live document. Rendered results replace static ones only when they
// produced something.
func (c *Controller) renderDetail(ctx context.Context, url string, structured **scrape.Fragment, domFragment *scrape.Fragment) error {
	page, err := c.browser.NewPage(ctx)
	if err != nil {
		return fmt.Errorf("open detail tab: %w", err)
	}
	defer page.Close()

	if err := page.Navigate(ctx, url); err != nil {
		return err
	}
	c.dismissConsent(ctx, page)

	if frag, err := extract.Structured(ctx, page); err == nil && frag != nil {
		*structured = frag
	}
	frag, err := c.dom.Fragment(ctx, page)
	if err != nil {
		return fmt.Errorf("probe detail fields: %w", err)
	}
	if !frag.Empty() || domFragment.Empty() {
		*domFragment = frag
	}
	return nil
}
