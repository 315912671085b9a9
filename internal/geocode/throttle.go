package geocode

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"wahlkreis-api/internal/logger"
	"wahlkreis-api/internal/metrics"
)

// Throttle 外部地理编码调用之间的最小间隔控制
type Throttle interface {
	Wait(ctx context.Context) error
}

// 文档注释：进程内节流
// 背景：外部服务的使用政策要求每秒至多一次请求；所有请求共用同一个限流器，并发请求依次排队而不是同时发出。
// 约束：interval <= 0 时不限速；ctx 取消时立即返回错误。
type LocalThrottle struct {
	lim *rate.Limiter
}

func NewLocalThrottle(interval time.Duration) *LocalThrottle {
	if interval <= 0 {
		return &LocalThrottle{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	return &LocalThrottle{lim: rate.NewLimiter(rate.Every(interval), 1)}
}

func (t *LocalThrottle) Wait(ctx context.Context) error {
	t0 := time.Now()
	err := t.lim.Wait(ctx)
	metrics.GeocodeThrottleWaitMs.Observe(float64(time.Since(t0).Milliseconds()))
	return err
}

// 文档注释：跨进程节流（Redis 令牌）
// 背景：多实例共享同一外部配额时，进程内限流不足以保证全局间隔；以 SET NX PX 抢占一个 interval 长度的时间片。
// 约束：先经过进程内节流再抢占 Redis 时间片；Redis 不可用时记录告警并仅依赖进程内节流。
type RedisThrottle struct {
	local    *LocalThrottle
	rc       *redis.Client
	key      string
	interval time.Duration
}

func NewRedisThrottle(rc *redis.Client, key string, interval time.Duration) *RedisThrottle {
	if key == "" {
		key = "wk:geocode:throttle"
	}
	return &RedisThrottle{local: NewLocalThrottle(interval), rc: rc, key: key, interval: interval}
}

func (t *RedisThrottle) Wait(ctx context.Context) error {
	if err := t.local.Wait(ctx); err != nil {
		return err
	}
	if t.interval <= 0 {
		return nil
	}
	for {
		ok, err := t.rc.SetNX(ctx, t.key, 1, t.interval).Result()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.L().Warn("geocode_throttle_redis_error", "err", err)
			return nil
		}
		if ok {
			return nil
		}
		wait, err := t.rc.PTTL(ctx, t.key).Result()
		if err != nil || wait <= 0 {
			wait = 10 * time.Millisecond
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
