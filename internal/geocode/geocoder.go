package geocode

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"wahlkreis-api/internal/logger"
	"wahlkreis-api/internal/metrics"
)

// Result 一次地理编码的结果；Lat/Lon 仅在 Success 时有效
type Result struct {
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
	Success bool    `json:"success"`
	Reason  Reason  `json:"reason,omitempty"`
	Cached  bool    `json:"cached"`
}

// Options 地理编码器的可选行为
type Options struct {
	// FailureMaxAge 失败条目超过该时长后重新请求；0 表示失败结果永久有效
	FailureMaxAge time.Duration
	// Now 测试用时钟
	Now func() time.Time
	// Timeout 合并后的共享查询（含节流等待）的上限，默认 30s
	Timeout time.Duration
}

// 文档注释：地址地理编码器
// 背景：外部服务有严格配额，同一地址在缓存生命周期内至多请求一次；并发的相同请求合并为一次外部调用。
// 约束：失败（无结果/服务不可用）同样缓存；调用方取消只影响该调用方，不缓存也不影响合并中的其他调用方；
// 部分成功不存在，坐标解析失败即视为失败。
type Geocoder struct {
	search   Searcher
	cache    Cache
	throttle Throttle
	opts     Options
	group    singleflight.Group
}

func NewGeocoder(search Searcher, cache Cache, throttle Throttle, opts Options) *Geocoder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if throttle == nil {
		throttle = NewLocalThrottle(time.Second)
	}
	return &Geocoder{search: search, cache: cache, throttle: throttle, opts: opts}
}

// Geocode 地址 → 坐标；country 为空时按国内地址处理
func (g *Geocoder) Geocode(ctx context.Context, address, country string) Result {
	if Normalize(address) == "" {
		metrics.GeocodeRequestsTotal.WithLabelValues("empty").Inc()
		return Result{Reason: ReasonNoMatch}
	}
	if ctx.Err() != nil {
		metrics.GeocodeRequestsTotal.WithLabelValues(string(ReasonUnavailable)).Inc()
		return Result{Reason: ReasonUnavailable}
	}
	key := Key(address, country)
	// 共享查询脱离发起方的取消信号；每个调用方只按自己的 ctx 放弃等待
	ch := g.group.DoChan(key, func() (any, error) {
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.opts.Timeout)
		defer cancel()
		return g.resolve(wctx, key, address, country), nil
	})
	var res Result
	select {
	case <-ctx.Done():
		res = Result{Reason: ReasonUnavailable}
	case r := <-ch:
		res = r.Val.(Result)
	}
	metrics.GeocodeRequestsTotal.WithLabelValues(outcome(res)).Inc()
	return res
}

func (g *Geocoder) resolve(ctx context.Context, key, address, country string) Result {
	cur, found, err := g.cache.Get(ctx, key)
	if err != nil {
		logger.L().Warn("geocode_cache_error", "err", err)
	}
	if found && g.fresh(cur) {
		return Result{Lat: cur.Lat, Lon: cur.Lon, Success: cur.Success, Reason: cur.Reason, Cached: true}
	}

	if err := g.throttle.Wait(ctx); err != nil {
		return Result{Reason: ReasonUnavailable}
	}
	lat, lon, err := g.search.Search(ctx, strings.TrimSpace(address), country)
	if err != nil && ctx.Err() != nil {
		// 调用方取消或超时，与地址本身无关
		return Result{Reason: ReasonUnavailable}
	}

	now := g.opts.Now().UTC()
	e := Entry{Key: key, CreatedAt: now, UpdatedAt: now}
	switch {
	case err == nil:
		e.Success, e.Lat, e.Lon = true, lat, lon
	case errors.Is(err, ErrNoMatch):
		e.Reason = ReasonNoMatch
	default:
		e.Reason = ReasonUnavailable
	}
	if found {
		e.CreatedAt = cur.CreatedAt
	}
	if err := g.cache.Put(ctx, e); err != nil {
		logger.L().Warn("geocode_cache_put_error", "err", err)
	}
	return Result{Lat: e.Lat, Lon: e.Lon, Success: e.Success, Reason: e.Reason}
}

// fresh 成功条目永远有效；失败条目按 FailureMaxAge 判断
func (g *Geocoder) fresh(e Entry) bool {
	if e.Success || g.opts.FailureMaxAge <= 0 {
		return true
	}
	return g.opts.Now().Sub(e.UpdatedAt) < g.opts.FailureMaxAge
}

func outcome(r Result) string {
	switch {
	case r.Success && r.Cached:
		return "hit"
	case r.Success:
		return "resolved"
	case r.Cached:
		return "cached_failure"
	}
	return string(r.Reason)
}
