package migrate

import (
	"context"
	"database/sql"

	"wahlkreis-api/internal/logger"
)

// 背景：首次运行自动创建地理编码缓存与议会目录所需表与索引
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；目录数据由外部同步任务写入，此处仅建表。
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS geocode_cache (
            cache_key TEXT PRIMARY KEY,
            lat DOUBLE PRECISION NOT NULL DEFAULT 0,
            lon DOUBLE PRECISION NOT NULL DEFAULT 0,
            success BOOLEAN NOT NULL,
            reason TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
		`CREATE TABLE IF NOT EXISTS parliament_terms (
            id TEXT PRIMARY KEY,
            level TEXT NOT NULL,
            region TEXT NOT NULL DEFAULT '',
            starts_on DATE NOT NULL,
            ends_on DATE
        )`,
		`CREATE INDEX IF NOT EXISTS idx_terms_level_region ON parliament_terms(level, region, starts_on DESC)`,
		`CREATE TABLE IF NOT EXISTS constituencies (
            id TEXT PRIMARY KEY,
            term_id TEXT NOT NULL REFERENCES parliament_terms(id),
            level TEXT NOT NULL,
            scope TEXT NOT NULL,
            region TEXT NOT NULL DEFAULT '',
            external_id TEXT NOT NULL,
            name TEXT NOT NULL
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_constituency ON constituencies(term_id, scope, region, external_id)`,
		`CREATE TABLE IF NOT EXISTS representatives (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            party TEXT NOT NULL DEFAULT '',
            constituency_id TEXT NOT NULL REFERENCES constituencies(id),
            list_position INT,
            active_from DATE NOT NULL,
            active_until DATE
        )`,
		`CREATE INDEX IF NOT EXISTS idx_representatives_constituency ON representatives(constituency_id)`,
		`CREATE TABLE IF NOT EXISTS representative_committees (
            representative_id UUID NOT NULL REFERENCES representatives(id),
            committee TEXT NOT NULL,
            PRIMARY KEY (representative_id, committee)
        )`,
		`CREATE TABLE IF NOT EXISTS committee_topics (
            committee TEXT NOT NULL,
            topic_id TEXT NOT NULL,
            PRIMARY KEY (committee, topic_id)
        )`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}

// EnsureSQLiteCache：SQLite 缓存后端只需要缓存表
func EnsureSQLiteCache(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS geocode_cache (
        cache_key TEXT PRIMARY KEY,
        lat REAL NOT NULL DEFAULT 0,
        lon REAL NOT NULL DEFAULT 0,
        success INTEGER NOT NULL,
        reason TEXT NOT NULL DEFAULT '',
        created_at INTEGER NOT NULL,
        updated_at INTEGER NOT NULL
    )`)
	return err
}
