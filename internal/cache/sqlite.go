package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/burn-risk/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS burn_cache (
	key TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	computed_at TEXT NOT NULL,
	ttl_seconds INTEGER NOT NULL
);`

// SQLiteStore implements Store on an embedded SQLite database. The pure-Go
// driver keeps the binary cgo-free; WAL mode lets the HTTP read path and the
// resolve write path overlap without blocking each other.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the cache database at path.
// Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if strings.Contains(path, ":memory:") {
		// Each pooled connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	var (
		payload    string
		computedAt string
		ttlSeconds int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, computed_at, ttl_seconds FROM burn_cache WHERE key = ?`, key,
	).Scan(&payload, &computedAt, &ttlSeconds)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("read cache entry %q: %w", key, err)
	}

	entry, err := decodeEntry(key, payload, computedAt, ttlSeconds)
	if err != nil {
		// A corrupt row is treated as absent and evicted so the next
		// resolve recomputes instead of failing forever on the same row.
		s.logger.Warn("evicting corrupt cache entry", "key", key, "error", err)
		if _, delErr := s.db.ExecContext(ctx, `DELETE FROM burn_cache WHERE key = ?`, key); delErr != nil {
			s.logger.Error("evict corrupt cache entry failed", "key", key, "error", delErr)
		}
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, entry Entry) error {
	if entry.ComputedAt.IsZero() {
		entry.ComputedAt = clock.Now()
	}
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("encode cache payload %q: %w", entry.Key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO burn_cache(key, payload, computed_at, ttl_seconds) VALUES(?,?,?,?)`,
		entry.Key, string(payload), entry.ComputedAt.UTC().Format(time.RFC3339Nano), int64(entry.TTL/time.Second),
	)
	if err != nil {
		return fmt.Errorf("write cache entry %q: %w", entry.Key, err)
	}
	return nil
}

func (s *SQLiteStore) Invalidate(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM burn_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("invalidate cache entry %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) All(ctx context.Context) ([]domain.BurnArea, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, payload, computed_at, ttl_seconds FROM burn_cache ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}
	defer rows.Close()

	var (
		areas   []domain.BurnArea
		corrupt []string
	)
	for rows.Next() {
		var (
			key        string
			payload    string
			computedAt string
			ttlSeconds int64
		)
		if err := rows.Scan(&key, &payload, &computedAt, &ttlSeconds); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		entry, err := decodeEntry(key, payload, computedAt, ttlSeconds)
		if err != nil {
			s.logger.Warn("skipping corrupt cache entry", "key", key, "error", err)
			corrupt = append(corrupt, key)
			continue
		}
		areas = append(areas, entry.Payload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cache entries: %w", err)
	}

	for _, key := range corrupt {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM burn_cache WHERE key = ?`, key); err != nil {
			s.logger.Error("evict corrupt cache entry failed", "key", key, "error", err)
		}
	}
	return areas, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM burn_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// decodeEntry rebuilds an Entry from its stored columns. Any decode failure
// is cache corruption: the row was written by us, so it should always parse.
func decodeEntry(key, payload, computedAt string, ttlSeconds int64) (Entry, error) {
	var area domain.BurnArea
	if err := json.Unmarshal([]byte(payload), &area); err != nil {
		return Entry{}, fmt.Errorf("%w: payload for %q: %v", domain.ErrCacheCorruption, key, err)
	}
	stamp, err := time.Parse(time.RFC3339Nano, computedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: computed_at for %q: %v", domain.ErrCacheCorruption, key, err)
	}
	if ttlSeconds < 0 {
		return Entry{}, fmt.Errorf("%w: negative ttl for %q", domain.ErrCacheCorruption, key)
	}
	return Entry{
		Key:        key,
		Payload:    area,
		ComputedAt: stamp,
		TTL:        time.Duration(ttlSeconds) * time.Second,
	}, nil
}
