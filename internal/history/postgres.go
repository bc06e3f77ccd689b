package history

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the Postgres connection pool used for history rows.
type PostgresConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore keeps processed URLs in a shared table, for deployments
// where several hosts run the pipeline against one history. Rows are
// upserted as units complete, so Persist is a no-op.
type PostgresStore struct {
	pool   querier
	table  string
	logger *zap.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewPostgresStore connects a pool using the provided config.
//
// Expected schema:
//
//	CREATE TABLE processed_articles (
//	    url TEXT PRIMARY KEY,
//	    processed_at TIMESTAMPTZ NOT NULL
//	);
func NewPostgresStore(ctx context.Context, cfg PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("history.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewPostgresStoreWithPool(pool, cfg.Table, logger)
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewPostgresStoreWithPool(pool querier, table string, logger *zap.Logger) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "processed_articles"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{
		pool:   pool,
		table:  table,
		logger: logger,
		seen:   make(map[string]struct{}),
	}, nil
}

// Load reads all known URLs into memory so the pre-run filter needs no
// per-item round trips.
func (s *PostgresStore) Load(ctx context.Context) error {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT url FROM %s`, s.table))
	if err != nil {
		return fmt.Errorf("load history rows: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return fmt.Errorf("scan history row: %w", err)
		}
		seen[url] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate history rows: %w", err)
	}

	s.mu.Lock()
	s.seen = seen
	s.mu.Unlock()
	s.logger.Debug("history loaded", zap.String("table", s.table), zap.Int("entries", len(seen)))
	return nil
}

// Contains reports whether url was processed in a prior run.
func (s *PostgresStore) Contains(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[url]
	return ok
}

// Record upserts one entry; re-recording an existing URL only refreshes its
// timestamp.
func (s *PostgresStore) Record(ctx context.Context, url string, processedAt time.Time) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (url, processed_at) VALUES ($1, $2)
		 ON CONFLICT (url) DO UPDATE SET processed_at = EXCLUDED.processed_at`,
		s.table,
	)
	if _, err := s.pool.Exec(ctx, query, url, processedAt.UTC()); err != nil {
		return fmt.Errorf("record history entry: %w", err)
	}
	s.mu.Lock()
	s.seen[url] = struct{}{}
	s.mu.Unlock()
	return nil
}

// Persist is a no-op: rows are written as units complete.
func (s *PostgresStore) Persist(_ context.Context) error { return nil }

// Reset clears all entries.
func (s *PostgresStore) Reset(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, s.table)); err != nil {
		return fmt.Errorf("reset history: %w", err)
	}
	s.mu.Lock()
	s.seen = make(map[string]struct{})
	s.mu.Unlock()
	return nil
}

// URLs returns the loaded URL set in sorted order.
func (s *PostgresStore) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	urls := make([]string, 0, len(s.seen))
	for url := range s.seen {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
