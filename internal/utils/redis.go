// 包 utils：数据库、Redis 与 SQLite 连接工具，统一环境变量读取
package utils

import (
	"context"
	"os"
	"strconv"
	"time"

	"wahlkreis-api/internal/logger"

	"github.com/redis/go-redis/v9"
)

// OpenRedis：按地址与密码打开客户端；地址为空时返回 nil 表示禁用
func OpenRedis(addr, pass string) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass})
}

// OpenRedisFromEnv：REDIS_URL 优先，其次 REDIS_HOST/REDIS_PORT/REDIS_PASS/REDIS_DB
// 约束：REDIS_ENABLE=false 时返回 nil；Ping 失败时关闭客户端并返回 nil，由上层按“无 Redis”降级。
func OpenRedisFromEnv(ctx context.Context) *redis.Client {
	if os.Getenv("REDIS_ENABLE") == "false" {
		return nil
	}
	var opts *redis.Options
	if u := os.Getenv("REDIS_URL"); u != "" {
		o, err := redis.ParseURL(u)
		if err != nil {
			logger.L().Error("redis_url_invalid", "err", err)
			return nil
		}
		opts = o
	} else {
		db := 0
		if v := os.Getenv("REDIS_DB"); v != "" {
			// ignore parse error silently, default 0
			if n, _ := strconv.Atoi(v); n >= 0 {
				db = n
			}
		}
		opts = &redis.Options{
			Addr:     envOr("REDIS_HOST", "127.0.0.1") + ":" + envOr("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASS"),
			DB:       db,
		}
	}
	rc := redis.NewClient(opts)
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rc.Ping(pctx).Err(); err != nil {
		logger.L().Warn("redis_ping_error", "addr", opts.Addr, "err", err)
		_ = rc.Close()
		return nil
	}
	logger.L().Debug("redis_ready", "addr", opts.Addr, "db", opts.DB)
	return rc
}
