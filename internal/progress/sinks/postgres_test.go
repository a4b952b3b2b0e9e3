package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/tlareau/jobsift/internal/progress"
)

func TestPostgresSink_Consume(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	sink, err := NewPostgresSink(mock, "run_events")
	require.NoError(t, err)

	evt := progress.Event{
		RunID: progress.UUIDToBytes(uuid.New()),
		TS:    time.Now().UTC(),
		Stage: progress.StageRecordEmitted,
	}

	mock.ExpectExec("INSERT INTO run_events").
		WithArgs(evt.RunUUID(), evt.TS, "RECORD_EMITTED", "", int64(0), int64(0), false, "", int64(0), "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{evt}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresSink_RejectsBadTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresSink(mock, "run-events; drop table")
	require.Error(t, err)
}
