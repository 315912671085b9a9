package geocode

import (
	"context"
	"database/sql"
	"errors"
)

// 文档注释：Postgres 持久层
// 背景：跨重启保留地址解析结果，保证每个唯一地址在缓存生命周期内至多调用一次外部服务。
// 约束：表结构由 migrate.EnsureSchema 创建；写入使用 ON CONFLICT，成功条目永不被覆盖。
type PostgresCache struct {
	db *sql.DB
}

func NewPostgresCache(db *sql.DB) *PostgresCache { return &PostgresCache{db: db} }

func (p *PostgresCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	e := Entry{Key: key}
	var reason string
	err := p.db.QueryRowContext(ctx,
		`SELECT lat, lon, success, reason, created_at, updated_at FROM geocode_cache WHERE cache_key = $1`, key,
	).Scan(&e.Lat, &e.Lon, &e.Success, &reason, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	e.Reason = Reason(reason)
	return e, true, nil
}

func (p *PostgresCache) Put(ctx context.Context, e Entry) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO geocode_cache (cache_key, lat, lon, success, reason, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (cache_key) DO UPDATE
        SET lat = EXCLUDED.lat, lon = EXCLUDED.lon, success = EXCLUDED.success,
            reason = EXCLUDED.reason, updated_at = EXCLUDED.updated_at
        WHERE geocode_cache.success = false AND geocode_cache.updated_at < EXCLUDED.updated_at`,
		e.Key, e.Lat, e.Lon, e.Success, string(e.Reason), e.CreatedAt, e.UpdatedAt)
	return err
}
