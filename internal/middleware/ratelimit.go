package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"wahlkreis-api/internal/logger"
	"wahlkreis-api/internal/metrics"
)

// 文档注释：令牌桶限流中间件
// 背景：在流量峰值时对入口进行限速，避免外部地理编码配额与数据库被打满；速率与突发量来自配置。
// 约束：不做队列排队，超限直接返回 429；perSec <= 0 时不限流。
type TokenBucket struct {
	lim *rate.Limiter
}

func NewTokenBucket(perSec float64, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{lim: rate.NewLimiter(rate.Limit(perSec), burst)}
}

func (tb *TokenBucket) allow() bool { return tb.lim.Allow() }

// Wrap 返回全局限流中间件
func Wrap(perSec float64, burst int) func(http.Handler) http.Handler {
	if perSec <= 0 {
		logger.L().Info("rate_limit_disabled")
		return func(next http.Handler) http.Handler { return next }
	}
	tb := NewTokenBucket(perSec, burst)
	logger.L().Info("rate_limit_enabled", "per_sec", perSec, "burst", burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tb.allow() {
				metrics.RateLimitedTotal.Inc()
				w.Header().Set("retry-after", "1")
				w.Header().Set("content-type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
