// 包 app：按配置装配全部运行期组件，供 HTTP 服务与运维 CLI 共用
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"wahlkreis-api/internal/catalog"
	"wahlkreis-api/internal/config"
	"wahlkreis-api/internal/geo"
	"wahlkreis-api/internal/geocode"
	"wahlkreis-api/internal/geoip"
	"wahlkreis-api/internal/logger"
	"wahlkreis-api/internal/migrate"
	"wahlkreis-api/internal/recommend"
	"wahlkreis-api/internal/resolve"
	"wahlkreis-api/internal/topic"
	"wahlkreis-api/internal/utils"
)

// 文档注释：装配完成的组件集合
// 背景：主入口只负责读取配置与启动服务；依赖的构造顺序集中在此，CLI 复用同一套装配避免行为分叉。
// 约束：只有边界数据加载失败会返回错误；数据库、Redis、GeoIP 不可用时降级并记录日志。
type App struct {
	Config     config.Config
	Index      *geo.Index
	Taxonomy   *topic.Taxonomy
	Classifier *topic.Classifier
	Geocoder   *geocode.Geocoder
	Resolver   *resolve.Resolver
	Engine     *recommend.Engine
	GeoIP      *geoip.Locator
	Catalog    catalog.Store
	CacheTiers []string

	db      *sqlx.DB
	rc      *redis.Client
	closers []func() error
}

// Build 依次装配边界索引、话题分类、存储、地理编码、解析与推荐
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	l := logger.Component("app")
	a := &App{Config: cfg}

	t0 := time.Now()
	idx, err := geo.LoadIndex(cfg.BoundaryFederalPath, cfg.BoundaryStateDir, geo.DefaultFields())
	if err != nil {
		return nil, fmt.Errorf("load boundaries: %w", err)
	}
	fed, layers := idx.Stats()
	l.Info("boundaries_loaded", "federal", fed, "state_layers", layers, "ms", time.Since(t0).Milliseconds())
	a.Index = idx

	tx, err := a.taxonomy(l)
	if err != nil {
		return nil, err
	}
	a.Taxonomy, a.Classifier = tx, topic.NewClassifier(tx)

	if cfg.GeocodeCacheBackend == "postgres" || cfg.CatalogBackend == "postgres" {
		a.openPostgres(ctx, l)
	}
	a.rc = utils.OpenRedisFromEnv(ctx)
	if a.rc == nil {
		l.Info("redis_disabled")
	} else {
		a.closers = append(a.closers, a.rc.Close)
	}

	a.Catalog, err = a.catalog(l)
	if err != nil {
		return nil, err
	}

	cache, err := a.cacheChain(ctx, l)
	if err != nil {
		return nil, err
	}
	a.Geocoder = geocode.NewGeocoder(
		geocode.NewClient(cfg.GeocodeBaseURL, cfg.GeocodeUserAgent, cfg.GeocodeTimeout),
		cache, a.throttle(l), geocode.Options{FailureMaxAge: cfg.GeocodeFailureMaxAge},
	)

	a.Resolver = resolve.NewResolver(a.Geocoder, idx, a.Catalog, resolve.Options{NearestMaxKm: cfg.ResolveNearestMaxKm})
	a.Engine = recommend.NewEngine(a.Classifier, a.Resolver, a.Catalog, recommend.Options{Weights: cfg.Weights})

	if gl, err := geoip.Open(cfg.GeoIPPath); err != nil {
		l.Warn("geoip_open_error", "err", err)
	} else if gl != nil {
		a.GeoIP = gl
		a.closers = append(a.closers, gl.Close)
	}
	return a, nil
}

func (a *App) taxonomy(l *slog.Logger) (*topic.Taxonomy, error) {
	if a.Config.TaxonomyPath == "" {
		return topic.DefaultTaxonomy()
	}
	tx, err := topic.LoadTaxonomy(a.Config.TaxonomyPath)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	l.Info("taxonomy_loaded", "path", a.Config.TaxonomyPath, "topics", len(tx.Topics()))
	return tx, nil
}

func (a *App) openPostgres(ctx context.Context, l *slog.Logger) {
	db, err := utils.OpenPostgresFromEnv(ctx)
	if err != nil {
		l.Error("db_open_error", "err", err)
		return
	}
	if err := migrate.EnsureSchema(ctx, utils.Raw(db)); err != nil {
		l.Error("schema_error", "err", err)
		_ = db.Close()
		return
	}
	l.Info("db_ready")
	a.db = db
	a.closers = append(a.closers, db.Close)
}

// catalog 数据库不可用时回退到固件，固件也不可用时使用空目录（所有议席查询记为缺失）
func (a *App) catalog(l *slog.Logger) (catalog.Store, error) {
	if a.Config.CatalogBackend == "postgres" && a.db != nil {
		return catalog.NewPostgresStore(a.db), nil
	}
	if a.Config.CatalogBackend == "postgres" {
		l.Warn("catalog_fallback", "to", "fixture")
	}
	st, err := catalog.LoadFixture(a.Config.CatalogFixturePath)
	if err == nil {
		l.Info("catalog_fixture_loaded", "path", a.Config.CatalogFixturePath)
		return st, nil
	}
	l.Error("catalog_fixture_error", "path", a.Config.CatalogFixturePath, "err", err)
	return catalog.ParseFixture(nil)
}

// cacheChain 内存 → Redis → 持久层（postgres 或 sqlite，按配置）
func (a *App) cacheChain(ctx context.Context, l *slog.Logger) (*geocode.ChainCache, error) {
	mem, err := geocode.NewMemoryCache(a.Config.GeocodeMemorySize)
	if err != nil {
		return nil, fmt.Errorf("memory cache: %w", err)
	}
	tiers := []geocode.Tier{{Name: "memory", Cache: mem}}
	if a.rc != nil {
		tiers = append(tiers, geocode.Tier{Name: "redis", Cache: geocode.NewRedisCache(a.rc, a.Config.GeocodeRedisKeyPrefix)})
	}
	switch a.Config.GeocodeCacheBackend {
	case "postgres":
		if a.db != nil {
			tiers = append(tiers, geocode.Tier{Name: "postgres", Cache: geocode.NewPostgresCache(utils.Raw(a.db))})
		} else {
			l.Warn("geocode_cache_degraded", "backend", "postgres", "reason", "db_unavailable")
		}
	case "sqlite":
		sdb, err := utils.OpenSQLite(ctx, a.Config.GeocodeSQLitePath)
		if err == nil {
			err = migrate.EnsureSQLiteCache(ctx, sdb)
		}
		if err != nil {
			l.Warn("geocode_cache_degraded", "backend", "sqlite", "err", err)
			break
		}
		a.closers = append(a.closers, sdb.Close)
		tiers = append(tiers, geocode.Tier{Name: "sqlite", Cache: geocode.NewSQLiteCache(sdb)})
	case "memory":
	default:
		l.Warn("geocode_cache_backend_unknown", "backend", a.Config.GeocodeCacheBackend)
	}
	c := geocode.NewChainCache(tiers...)
	a.CacheTiers = c.Names()
	l.Info("geocode_cache_ready", "tiers", a.CacheTiers)
	return c, nil
}

func (a *App) throttle(l *slog.Logger) geocode.Throttle {
	if a.Config.GeocodeThrottleRedis && a.rc != nil {
		l.Info("geocode_throttle", "mode", "redis", "interval", a.Config.GeocodeMinInterval)
		return geocode.NewRedisThrottle(a.rc, a.Config.GeocodeRedisKeyPrefix+"throttle", a.Config.GeocodeMinInterval)
	}
	l.Info("geocode_throttle", "mode", "local", "interval", a.Config.GeocodeMinInterval)
	return geocode.NewLocalThrottle(a.Config.GeocodeMinInterval)
}

// Close 逆序释放资源
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
