package geocode

import (
	"context"
	"errors"

	"wahlkreis-api/internal/logger"
	"wahlkreis-api/internal/metrics"
)

// Tier 带名称的缓存层，名称用于指标与日志
type Tier struct {
	Name  string
	Cache Cache
}

// 文档注释：多级缓存（内存 → Redis → 持久层）
// 背景：读取自上而下，命中下层时回填上层；写入自下而上，先保证持久层落盘。
// 约束：某一层读取失败只记录并继续下一层，不影响解析流程；写入错误合并后返回，由调用方记录。
type ChainCache struct {
	tiers []Tier
}

func NewChainCache(tiers ...Tier) *ChainCache {
	var ts []Tier
	for _, t := range tiers {
		if t.Cache != nil {
			ts = append(ts, t)
		}
	}
	return &ChainCache{tiers: ts}
}

func (c *ChainCache) Get(ctx context.Context, key string) (Entry, bool, error) {
	for i, t := range c.tiers {
		e, ok, err := t.Cache.Get(ctx, key)
		if err != nil {
			metrics.GeocodeCacheErrorsTotal.WithLabelValues(t.Name, "get").Inc()
			logger.L().Warn("geocode_cache_get_error", "tier", t.Name, "err", err)
			continue
		}
		if !ok {
			continue
		}
		metrics.GeocodeCacheHitsTotal.WithLabelValues(t.Name).Inc()
		for j := i - 1; j >= 0; j-- {
			if err := c.tiers[j].Cache.Put(ctx, e); err != nil {
				metrics.GeocodeCacheErrorsTotal.WithLabelValues(c.tiers[j].Name, "backfill").Inc()
				logger.L().Warn("geocode_cache_backfill_error", "tier", c.tiers[j].Name, "err", err)
			}
		}
		return e, true, nil
	}
	return Entry{}, false, nil
}

func (c *ChainCache) Put(ctx context.Context, e Entry) error {
	var errs []error
	for i := len(c.tiers) - 1; i >= 0; i-- {
		t := c.tiers[i]
		if err := t.Cache.Put(ctx, e); err != nil {
			metrics.GeocodeCacheErrorsTotal.WithLabelValues(t.Name, "put").Inc()
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Names 已启用的层名称，自上而下
func (c *ChainCache) Names() []string {
	out := make([]string, 0, len(c.tiers))
	for _, t := range c.tiers {
		out = append(out, t.Name)
	}
	return out
}
