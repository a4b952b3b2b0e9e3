// Package scrape defines the core types and interfaces shared across the
// extraction pipeline: search requests, crawl tasks, output records, and the
// narrow contracts consumed from the browser-automation and persistence
// collaborators.
package scrape

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMissingKeyword aborts a run before any task is scheduled.
var ErrMissingKeyword = errors.New("search keyword is required")

// PostedWindow restricts results to postings newer than the window.
type PostedWindow string

// Posted window values accepted from task input.
const (
	PostedAnytime PostedWindow = "anytime"
	Posted24h     PostedWindow = "24h"
	Posted7d      PostedWindow = "7d"
	Posted30d     PostedWindow = "30d"
)

// DayRange maps the window onto the board's day_range query parameter.
// The second return is false for "anytime", which omits the parameter.
func (w PostedWindow) DayRange() (int, bool) {
	switch w {
	case Posted24h:
		return 1, true
	case Posted7d:
		return 7, true
	case Posted30d:
		return 30, true
	default:
		return 0, false
	}
}

// Target count bounds applied to every request.
const (
	MinTargetCount     = 1
	MaxTargetCount     = 500
	DefaultTargetCount = 50
)

// SearchRequest describes one scrape run. It is immutable once the run starts.
type SearchRequest struct {
	Keyword      string       `json:"keyword" mapstructure:"keyword"`
	Location     string       `json:"location,omitempty" mapstructure:"location"`
	PostedWithin PostedWindow `json:"posted_date,omitempty" mapstructure:"posted_date"`
	TargetCount  int          `json:"results_wanted,omitempty" mapstructure:"results_wanted"`
}

// Validate reports fatal configuration errors.
func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.Keyword) == "" {
		return ErrMissingKeyword
	}
	switch r.PostedWithin {
	case "", PostedAnytime, Posted24h, Posted7d, Posted30d:
	default:
		return fmt.Errorf("unknown posted_date %q", r.PostedWithin)
	}
	return nil
}

// Clamped returns a copy with TargetCount forced into [MinTargetCount,
// MaxTargetCount], defaulting when unset.
func (r SearchRequest) Clamped() SearchRequest {
	out := r
	switch {
	case out.TargetCount == 0:
		out.TargetCount = DefaultTargetCount
	case out.TargetCount < MinTargetCount:
		out.TargetCount = MinTargetCount
	case out.TargetCount > MaxTargetCount:
		out.TargetCount = MaxTargetCount
	}
	if out.PostedWithin == "" {
		out.PostedWithin = PostedAnytime
	}
	return out
}

// TaskKind distinguishes listing discovery from detail extraction.
type TaskKind string

// Task kinds flowing through the queue.
const (
	TaskListing TaskKind = "listing"
	TaskDetail  TaskKind = "detail"
)

// CrawlTask is one unit of queue work. Title carries listing context when the
// card exposed one; it is advisory only.
type CrawlTask struct {
	URL     string
	Kind    TaskKind
	Title   string
	Attempt int
}

// JobRecord is the normalized output unit, one per processed detail page.
// All fields except SourceURL and ScrapedAt are nullable; absence means no
// extraction tier produced a value.
type JobRecord struct {
	SourceURL       string    `json:"source_url"`
	Title           *string   `json:"title"`
	Company         *string   `json:"company"`
	Location        *string   `json:"location"`
	PostedDate      *string   `json:"posted_date"`
	EmploymentType  *string   `json:"employment_type"`
	ValidThrough    *string   `json:"valid_through"`
	ExternalID      *string   `json:"external_id"`
	DescriptionHTML *string   `json:"description_html"`
	ScrapedAt       time.Time `json:"scraped_at"`
}

// Fragment is the partial record produced by one extraction tier. Empty
// strings mean the tier had nothing for that field; the normalizer converts
// them to nulls in the output record.
type Fragment struct {
	Title          string
	Company        string
	Location       string
	PostedDate     string
	EmploymentType string
	ValidThrough   string
	ExternalID     string
	Description    string
}

// Empty reports whether no field carries a value.
func (f Fragment) Empty() bool {
	return f == Fragment{}
}

// RunState is the controller's lifecycle state.
type RunState string

// Run states, in normal order of appearance.
const (
	RunSeeded  RunState = "seeded"
	RunListing RunState = "listing_active"
	RunDetail  RunState = "detail_active"
	RunDone    RunState = "done"
	RunFailed  RunState = "failed"
)

// RunSummary is returned when a run terminates and served by the status
// endpoint while it is live.
type RunSummary struct {
	RunID        string     `json:"run_id"`
	Keyword      string     `json:"keyword"`
	State        RunState   `json:"state"`
	ListingPages int        `json:"listing_pages"`
	Enqueued     int        `json:"detail_enqueued"`
	Collected    int        `json:"records_collected"`
	Failed       int        `json:"tasks_failed"`
	Started      time.Time  `json:"started_at"`
	Finished     *time.Time `json:"finished_at,omitempty"`
}
