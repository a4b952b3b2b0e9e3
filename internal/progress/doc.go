// Package progress provides the event primitives, non-blocking hub, and
// emitter interfaces used to report scrape-run progress. Events are batched on
// a background goroutine and fanned out to pluggable sinks such as Prometheus
// collectors, structured logs, or a database table.
package progress
