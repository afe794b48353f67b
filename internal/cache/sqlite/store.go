// Package sqlite implements the cache store on an embedded SQLite database.
// This is the primary, durable backend: one database file per deployment.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/nichescope/internal/cache"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	value BLOB NOT NULL,
	category TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	access_count INTEGER NOT NULL DEFAULT 1,
	size_bytes INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_expires_at ON cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_cache_category ON cache(category);
CREATE INDEX IF NOT EXISTS idx_cache_access_count ON cache(access_count);
`

// Compile-time check: Store implements cache.Store.
var _ cache.Store = (*Store)(nil)

// Config holds sqlite store settings.
type Config struct {
	// Path is the database file location. Parent directories are created.
	Path string
	// MaxRecords is the eviction ceiling. <=0 uses the default of 1000.
	MaxRecords int
}

// Store is a mutex-serialized SQLite cache store.
type Store struct {
	mu      sync.Mutex
	db      *sql.DB
	ceiling int
	now     func() time.Time
	logger  *zap.Logger

	hits   int64
	misses int64
	errors int64
}

// New opens (or creates) the cache database at cfg.Path.
func New(cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("cache path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	// The store serializes access behind its own mutex; a single connection
	// avoids SQLITE_BUSY under concurrent request paths.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	ceiling := cfg.MaxRecords
	if ceiling <= 0 {
		ceiling = 1000
	}
	return &Store{
		db:      db,
		ceiling: ceiling,
		now:     time.Now,
		logger:  logger,
	}, nil
}

// Get returns the cached value, performing the expiry check at read time:
// an expired row is deleted and reported as a miss in the same call.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		value     []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM cache WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	switch {
	case err == sql.ErrNoRows:
		s.misses++
		return nil, false
	case err != nil:
		s.errors++
		s.logger.Warn("Cache read failed, degrading to miss", zap.Error(err))
		return nil, false
	}

	if expiresAt <= s.now().Unix() {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ?", key); err != nil {
			s.errors++
			s.logger.Warn("Failed to delete expired cache row", zap.Error(err))
		}
		s.misses++
		return nil, false
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE cache SET access_count = access_count + 1 WHERE key = ?", key,
	); err != nil {
		s.errors++
		s.logger.Warn("Failed to bump cache access count", zap.Error(err))
	}
	s.hits++
	return value, true
}

// Set stores the value, overwriting any existing entry at the same key.
// Backend errors are counted and swallowed: the cache never fails a request.
func (s *Store) Set(ctx context.Context, key string, value []byte, category cache.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cache
			(key, value, category, created_at, expires_at, access_count, size_bytes)
		VALUES (?, ?, ?, ?, ?, 1, ?)`,
		key, value, string(category),
		now.Unix(), now.Add(category.TTL()).Unix(), len(value),
	)
	if err != nil {
		s.errors++
		s.logger.Warn("Cache write failed", zap.String("category", string(category)), zap.Error(err))
	}
}

// InvalidateExpired deletes all expired rows, then — if the remaining row
// count still exceeds the ceiling — evicts the lowest decile ranked by
// (access_count ASC, created_at ASC): least-used, then oldest, goes first.
func (s *Store) InvalidateExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM cache WHERE expires_at <= ?", s.now().Unix())
	if err != nil {
		s.errors++
		return 0, fmt.Errorf("delete expired: %w", err)
	}
	expired, _ := res.RowsAffected()

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cache").Scan(&total); err != nil {
		s.errors++
		return int(expired), fmt.Errorf("count rows: %w", err)
	}

	if total > s.ceiling {
		// A tenth of a small table rounds to zero; always evict at least one
		// row so the pass makes progress.
		evict := total / 10
		if evict < 1 {
			evict = 1
		}
		if _, err := s.db.ExecContext(ctx, `
			DELETE FROM cache WHERE key IN (
				SELECT key FROM cache
				ORDER BY access_count ASC, created_at ASC
				LIMIT ?
			)`, evict,
		); err != nil {
			s.errors++
			return int(expired), fmt.Errorf("evict least-used: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		s.logger.Warn("Cache vacuum failed", zap.Error(err))
	}
	return int(expired), nil
}

// Stats reports row count, stored bytes, and the in-process hit rate.
func (s *Store) Stats(ctx context.Context) (cache.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		count int
		bytes sql.NullInt64
	)
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), SUM(size_bytes) FROM cache",
	).Scan(&count, &bytes); err != nil {
		s.errors++
		return cache.Stats{}, fmt.Errorf("cache stats: %w", err)
	}

	st := cache.Stats{
		Records:    count,
		TotalBytes: bytes.Int64,
		Hits:       s.hits,
		Misses:     s.misses,
		Errors:     s.errors,
	}
	if lookups := s.hits + s.misses; lookups > 0 {
		st.HitRate = float64(s.hits) / float64(lookups)
	}
	return st, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("cache ping: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close cache db: %w", err)
	}
	return nil
}
