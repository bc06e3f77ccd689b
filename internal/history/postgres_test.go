package history

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPostgresStoreLoadAndContains(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "processed_articles", zap.NewNop())
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{"url"}).
		AddRow("https://example.com/a").
		AddRow("https://example.com/b")
	mock.ExpectQuery("SELECT url FROM processed_articles").WillReturnRows(rows)

	require.NoError(t, store.Load(context.Background()))
	require.True(t, store.Contains("https://example.com/a"))
	require.False(t, store.Contains("https://example.com/zzz"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreRecordUpserts(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "processed_articles", zap.NewNop())
	require.NoError(t, err)

	now := time.Date(2026, 8, 26, 9, 30, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO processed_articles").
		WithArgs("https://example.com/a", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Record(context.Background(), "https://example.com/a", now))
	require.True(t, store.Contains("https://example.com/a"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreReset(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "processed_articles", zap.NewNop())
	require.NoError(t, err)

	now := time.Now().UTC()
	mock.ExpectExec("INSERT INTO processed_articles").
		WithArgs("https://example.com/a", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM processed_articles").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	ctx := context.Background()
	require.NoError(t, store.Record(ctx, "https://example.com/a", now))
	require.NoError(t, store.Reset(ctx))
	require.False(t, store.Contains("https://example.com/a"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreRejectsBadTableName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresStoreWithPool(mock, "bad; drop table", zap.NewNop())
	require.Error(t, err)
}

func TestPostgresStorePersistIsNoOp(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "processed_articles", zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Persist(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
