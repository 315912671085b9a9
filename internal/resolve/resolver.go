package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wahlkreis-api/internal/catalog"
	"wahlkreis-api/internal/geo"
	"wahlkreis-api/internal/gov"
	"wahlkreis-api/internal/logger"
	"wahlkreis-api/internal/metrics"
)

// Confidence 解析结果的可信程度
type Confidence string

const (
	ConfidencePrecise     Confidence = "precise"
	ConfidenceApproximate Confidence = "approximate"
	ConfidenceCoarse      Confidence = "coarse"
	ConfidenceNone        Confidence = "none"
)

// StrategyNone 所有策略均未命中
const StrategyNone = "none"

// Resolution 地址解析结果
type Resolution struct {
	Federal        *gov.DistrictID        `json:"federal,omitempty"`
	State          *gov.DistrictID        `json:"state,omitempty"`
	EU             *gov.DistrictID        `json:"eu,omitempty"`
	Region         string                 `json:"region,omitempty"`
	Confidence     Confidence             `json:"confidence"`
	Strategy       string                 `json:"strategy"`
	Constituencies []catalog.Constituency `json:"constituencies"`
	Warnings       []string               `json:"warnings,omitempty"`
}

// LowConfidence 邮编前缀降级或完全未解析
func (r Resolution) LowConfidence() bool {
	return r.Confidence == ConfidenceCoarse || r.Confidence == ConfidenceNone
}

// Options 解析器参数
type Options struct {
	// NearestMaxKm 最近边界策略的最大距离；0 禁用
	NearestMaxKm float64
	Now          func() time.Time
}

// 文档注释：选区解析器
// 背景：策略链依次为 geocode → nearest → postal_prefix；命中后按层级查询当期议席。
// 约束：任何环节失败都只降级不报错；目录缺失项记录 catalog_miss 后从结果中省略；
// 坐标未落入边界时仍可由邮编前缀降级。
type Resolver struct {
	chain   []strategy
	catalog catalog.Catalog
	now     func() time.Time
}

func NewResolver(g Geocoder, loc Locator, cat catalog.Catalog, opts Options) *Resolver {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Resolver{
		chain: []strategy{
			geocodeStrategy{geocoder: g, locator: loc},
			nearestStrategy{locator: loc, maxKm: opts.NearestMaxKm},
			postalPrefixStrategy{},
		},
		catalog: cat,
		now:     opts.Now,
	}
}

// Resolve 地址 → 选区与议席
func (r *Resolver) Resolve(ctx context.Context, addr Address) Resolution {
	a := &attempt{addr: addr}
	res := Resolution{Confidence: ConfidenceNone, Strategy: StrategyNone, Constituencies: []catalog.Constituency{}}
	for _, s := range r.chain {
		out, ok := s.apply(ctx, a)
		if !ok {
			continue
		}
		res.Federal, res.State = out.federal, out.state
		res.Region = gov.CanonicalRegion(out.region)
		res.Confidence = out.confidence
		res.Strategy = s.name()
		break
	}
	if res.Strategy == StrategyNone && (a.point != nil || !addr.Domestic()) {
		a.warnings = append(a.warnings, "outside_coverage")
	}
	res.Warnings = a.warnings
	// 国内地址即使未解析出选区也附带 EU 名单；坐标落在境外则不附带
	if res.Federal != nil || res.Region != "" || (a.point == nil && addr.Domestic() && !addr.Empty()) {
		eu := gov.EUDistrict()
		res.EU = &eu
		res.Constituencies, res.Warnings = r.lookup(ctx, res, res.Warnings)
	}
	metrics.ResolveTotal.WithLabelValues(res.Strategy).Inc()

	attrs := []any{"strategy", res.Strategy, "confidence", res.Confidence, "constituencies", len(res.Constituencies)}
	if a.point != nil {
		attrs = append(attrs, "geohash", geo.LogHash(a.point.Lat, a.point.Lon))
	}
	if res.Federal != nil {
		attrs = append(attrs, "federal", res.Federal.Code())
	}
	logger.L().Debug("resolve_done", attrs...)
	return res
}

// Lookup 直接按已知选区查询议席（/locate 与命令行使用）
func (r *Resolver) Lookup(ctx context.Context, loc geo.Location) Resolution {
	res := Resolution{Confidence: ConfidenceNone, Strategy: StrategyNone, Constituencies: []catalog.Constituency{}}
	if loc.Federal == nil {
		return res
	}
	eu := gov.EUDistrict()
	res.Federal, res.State, res.EU = loc.Federal, loc.State, &eu
	res.Region = gov.CanonicalRegion(loc.Region())
	res.Confidence, res.Strategy = ConfidencePrecise, "coordinates"
	res.Constituencies, res.Warnings = r.lookup(ctx, res, nil)
	return res
}

// 文档注释：按解析结果查询当期议席
// 背景：联邦直选按选区编号、州直选按州名+编号、两级名单按州、EU 名单恒为国家代码；各自使用本层级当期届期。
// 约束：顺序固定（联邦直选、州直选、联邦名单、州名单、EU），保证输出稳定。
func (r *Resolver) lookup(ctx context.Context, res Resolution, warnings []string) ([]catalog.Constituency, []string) {
	at := r.now()
	out := []catalog.Constituency{}
	terms := map[string]string{}
	term := func(level gov.Level, region string) (string, error) {
		if level != gov.LevelState {
			region = ""
		}
		k := level.String() + "|" + region
		if id, ok := terms[k]; ok {
			return id, nil
		}
		t, err := r.catalog.ActiveTerm(ctx, level, region, at)
		if err != nil {
			return "", err
		}
		terms[k] = t.ID
		return t.ID, nil
	}
	one := func(scope gov.Scope, region, code string) {
		tid, err := term(scope.Level(), region)
		if err == nil {
			var c catalog.Constituency
			c, err = r.catalog.ConstituencyByCode(ctx, tid, scope, region, code)
			if err == nil {
				out = append(out, c)
				return
			}
		}
		warnings = append(warnings, r.miss(scope, err))
	}
	list := func(scope gov.Scope, region string) {
		tid, err := term(scope.Level(), region)
		if err == nil {
			var cs []catalog.Constituency
			cs, err = r.catalog.ListConstituencies(ctx, tid, scope, region)
			if err == nil && len(cs) == 0 {
				err = fmt.Errorf("%s %s: %w", scope, region, gov.ErrNotFound)
			}
			if err == nil {
				out = append(out, cs...)
				return
			}
		}
		warnings = append(warnings, r.miss(scope, err))
	}

	if res.Federal != nil {
		one(gov.ScopeFederalDistrict, "", res.Federal.Code())
	}
	if res.State != nil {
		one(gov.ScopeStateDistrict, res.Region, res.State.Code())
	}
	if res.Region != "" {
		list(gov.ScopeFederalList, res.Region)
		list(gov.ScopeStateList, res.Region)
	}
	if res.EU != nil {
		one(gov.ScopeEUAtLarge, "", res.EU.Code())
	}
	return out, warnings
}

// miss 记录目录缺失或故障，返回写入结果的告警文本
func (r *Resolver) miss(scope gov.Scope, err error) string {
	metrics.CatalogMissTotal.WithLabelValues(scope.String()).Inc()
	if errors.Is(err, gov.ErrNotFound) {
		logger.L().Warn("catalog_miss", "scope", scope.String(), "err", err)
		return "catalog_miss:" + scope.String()
	}
	logger.L().Error("catalog_error", "scope", scope.String(), "err", err)
	return "catalog_error:" + scope.String()
}
