//go:build integration

// 包 containers：集成测试用的 Postgres 与 Redis 容器
package containers

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"wahlkreis-api/internal/migrate"
	"wahlkreis-api/internal/utils"
)

// PostgresContainer 已建表的 Postgres 实例
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sqlx.DB
}

// NewPostgresContainer 启动容器并执行 migrate.EnsureSchema；测试结束自动销毁
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()

	c, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("wahlkreis"),
		tcpostgres.WithUsername("wahlkreis"),
		tcpostgres.WithPassword("wahlkreis"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}
	db, err := utils.OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := migrate.EnsureSchema(ctx, utils.Raw(db)); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return &PostgresContainer{Container: c, DSN: dsn, DB: db}
}
