package scrape

import (
	"context"
	"time"
)

// Page is the browser-automation surface the pipeline consumes: navigation
// with completion conditions, bounded selector waits, scrolling, and script
// evaluation. Implementations wrap one tab.
type Page interface {
	// Navigate loads the URL and returns once the document is ready or the
	// context deadline passes.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until the selector matches a visible element or the
	// timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// ScrollBy scrolls the window vertically by the given pixel offset.
	ScrollBy(ctx context.Context, deltaY int) error
	// Click dispatches a click on the first visible match, if any.
	Click(ctx context.Context, selector string) error
	// Evaluate runs the expression in page context and unmarshals the result.
	Evaluate(ctx context.Context, expr string, out any) error
	// URL returns the page's current location.
	URL(ctx context.Context) (string, error)
	// Markup returns the rendered document markup.
	Markup(ctx context.Context) (string, error)
	// Screenshot captures a full-page PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	// Close releases the tab.
	Close() error
}

// Anchor is one hyperlink discovered while walking a document tree.
type Anchor struct {
	Href string
	Text string
}

// Prober is the opaque document surface the extraction tiers run against.
// Implementations walk whatever tree their runtime exposes, including shadow
// roots and same-origin nested documents where the runtime can reach them.
//
// Absence is signaled by emptiness, never by error: a selector that matches
// nothing returns "" with a nil error. Errors are reserved for evaluation
// failures (dead tab, torn-down document).
type Prober interface {
	// Text returns the trimmed text content of the first match.
	Text(ctx context.Context, selector string) (string, error)
	// HTML returns the outer markup of the first match.
	HTML(ctx context.Context, selector string) (string, error)
	// BodyText returns the document's visible text.
	BodyText(ctx context.Context) (string, error)
	// Anchors returns every hyperlink in discovery order.
	Anchors(ctx context.Context) ([]Anchor, error)
	// Blocks returns the raw content of every match, in document order.
	Blocks(ctx context.Context, selector string) ([]string, error)
}

// DocumentPage is a rendered page that can be both driven and probed.
type DocumentPage interface {
	Page
	Prober
}

// Browser opens pages. One Browser is shared by all tasks in a run.
type Browser interface {
	NewPage(ctx context.Context) (DocumentPage, error)
	Close(ctx context.Context) error
}

// FetchResult is the outcome of a static (non-rendered) page fetch.
type FetchResult struct {
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Fetcher retrieves a page over plain HTTP, without rendering.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResult, error)
}

// RecordSink receives normalized records as independent, order-insensitive
// appends. Records already appended are not rolled back on later failures.
type RecordSink interface {
	Append(ctx context.Context, record JobRecord) error
}

// ArtifactStore persists diagnostic blobs (raw markup, screenshots) and
// returns a URI. Failures here never abort a run.
type ArtifactStore interface {
	Save(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes per-record completion events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Queue provides enqueue/dequeue semantics for detail tasks.
type Queue interface {
	Enqueue(ctx context.Context, task CrawlTask) error
	Dequeue(ctx context.Context) (CrawlTask, error)
	Close()
}

// Clock returns the current time (injectable for tests).
type Clock interface {
	Now() time.Time
}
