package sink

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/tlareau/jobsift/internal/scrape"
)

func TestPostgres_Append(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewPostgresWithPool(mock, "job_records")
	require.NoError(t, err)

	title := "DBA"
	at := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	record := scrape.JobRecord{
		SourceURL: "https://www.dice.com/job-detail/abc",
		Title:     &title,
		ScrapedAt: at,
	}

	mock.ExpectExec("INSERT INTO job_records").
		WithArgs(
			record.SourceURL,
			record.Title,
			record.Company,
			record.Location,
			record.PostedDate,
			record.EmploymentType,
			record.ValidThrough,
			record.ExternalID,
			record.DescriptionHTML,
			record.ScrapedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Append(context.Background(), record))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AppendRequiresSourceURL(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewPostgresWithPool(mock, "")
	require.NoError(t, err)
	require.Error(t, s.Append(context.Background(), scrape.JobRecord{}))
}

func TestNewPostgresWithPool_RejectsBadTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresWithPool(mock, "bad;table")
	require.Error(t, err)
}
