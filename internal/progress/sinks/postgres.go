package sinks

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tlareau/jobsift/internal/progress"
)

var validEventTable = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSink persists progress events into an append-only table. It shares
// a pool with the record sink; the sink never owns or closes the pool.
type PostgresSink struct {
	pool  execer
	table string
}

// NewPostgresSink builds a sink writing to the given table.
func NewPostgresSink(pool execer, table string) (*PostgresSink, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "run_events"
	}
	if !validEventTable.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresSink{pool: pool, table: table}, nil
}

// Consume inserts each event in the batch. The first insert failure aborts
// the batch; the hub logs and moves on, so partial batches are acceptable.
func (s *PostgresSink) Consume(ctx context.Context, batch []progress.Event) error {
	query := fmt.Sprintf(`
INSERT INTO %s (run_id, ts, stage, url, links, records, rendered, status_class, dur_ms, note)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, s.table)

	for _, evt := range batch {
		_, err := s.pool.Exec(ctx, query,
			evt.RunUUID(),
			evt.TS,
			string(evt.Stage),
			evt.URL,
			evt.Links,
			evt.Records,
			evt.Rendered,
			string(evt.StatusClass),
			evt.Dur.Milliseconds(),
			evt.Note,
		)
		if err != nil {
			return fmt.Errorf("insert progress event: %w", err)
		}
	}
	return nil
}

// Close implements the Sink interface; the shared pool is closed elsewhere.
func (s *PostgresSink) Close(context.Context) error {
	return nil
}
