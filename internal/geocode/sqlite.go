package geocode

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteCache 单节点部署的持久层（modernc.org/sqlite，无 CGO）
// 约束：时间以 UnixNano 整数存储；表结构由 migrate.EnsureSQLiteCache 创建。
type SQLiteCache struct {
	db *sql.DB
}

func NewSQLiteCache(db *sql.DB) *SQLiteCache { return &SQLiteCache{db: db} }

func (s *SQLiteCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	e := Entry{Key: key}
	var (
		success          int
		reason           string
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT lat, lon, success, reason, created_at, updated_at FROM geocode_cache WHERE cache_key = ?`, key,
	).Scan(&e.Lat, &e.Lon, &success, &reason, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	e.Success = success == 1
	e.Reason = Reason(reason)
	e.CreatedAt = time.Unix(0, created).UTC()
	e.UpdatedAt = time.Unix(0, updated).UTC()
	return e, true, nil
}

func (s *SQLiteCache) Put(ctx context.Context, e Entry) error {
	success := 0
	if e.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO geocode_cache (cache_key, lat, lon, success, reason, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (cache_key) DO UPDATE
        SET lat = excluded.lat, lon = excluded.lon, success = excluded.success,
            reason = excluded.reason, updated_at = excluded.updated_at
        WHERE geocode_cache.success = 0 AND geocode_cache.updated_at < excluded.updated_at`,
		e.Key, e.Lat, e.Lon, success, string(e.Reason), e.CreatedAt.UnixNano(), e.UpdatedAt.UnixNano())
	return err
}
