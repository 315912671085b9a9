// 包 config：集中读取进程环境变量并提供默认值
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// 文档注释：服务运行配置
// 背景：所有组件在 main 中一次性构造，配置只在启动时读取；运行期不再访问环境变量。
// 约束：缺省值面向本地开发；数据库与 Redis 连接参数由 utils 按 PG_* / REDIS_* 自行读取。
type Config struct {
	Addr    string
	APIBase string

	GeocodeBaseURL        string
	GeocodeUserAgent      string
	GeocodeTimeout        time.Duration
	GeocodeMinInterval    time.Duration
	GeocodeCacheBackend   string // postgres | sqlite | memory
	GeocodeSQLitePath     string
	GeocodeMemorySize     int
	GeocodeThrottleRedis  bool
	GeocodeFailureMaxAge  time.Duration
	GeocodeRedisKeyPrefix string

	BoundaryFederalPath string
	BoundaryStateDir    string
	ResolveNearestMaxKm float64

	TaxonomyPath string

	CatalogBackend     string // postgres | fixture
	CatalogFixturePath string

	GeoIPPath string

	RateLimitPerSec float64
	RateLimitBurst  int

	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string

	Weights Weights
}

// Weights：推荐综合评分的四项权重
type Weights struct {
	Geo     float64
	Topic   float64
	Mandate float64
	Level   float64
}

// DefaultWeights 地理与话题并重，直选席位与层级匹配作为加分项
func DefaultWeights() Weights {
	return Weights{Geo: 1.0, Topic: 1.0, Mandate: 0.5, Level: 0.5}
}

// FromEnv：读取环境变量生成配置
func FromEnv() Config {
	return Config{
		Addr:    str("ADDR", ":8080"),
		APIBase: strings.TrimRight(str("API_BASE", "/api"), "/"),

		GeocodeBaseURL:        strings.TrimRight(str("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"), "/"),
		GeocodeUserAgent:      str("GEOCODE_USER_AGENT", "wahlkreis-api/1.0"),
		GeocodeTimeout:        dur("GEOCODE_TIMEOUT", 5*time.Second),
		GeocodeMinInterval:    dur("GEOCODE_MIN_INTERVAL", time.Second),
		GeocodeCacheBackend:   strings.ToLower(str("GEOCODE_CACHE_BACKEND", "postgres")),
		GeocodeSQLitePath:     str("GEOCODE_SQLITE_PATH", "data/geocode.db"),
		GeocodeMemorySize:     integer("GEOCODE_MEMORY_SIZE", 10000),
		GeocodeThrottleRedis:  boolean("GEOCODE_THROTTLE_REDIS", false),
		GeocodeFailureMaxAge:  dur("GEOCODE_FAILURE_MAX_AGE", 0),
		GeocodeRedisKeyPrefix: str("GEOCODE_REDIS_PREFIX", "wk:geocode:"),

		BoundaryFederalPath: str("BOUNDARY_FEDERAL_PATH", "data/boundaries/federal.geojson"),
		BoundaryStateDir:    str("BOUNDARY_STATE_DIR", "data/boundaries/states"),
		ResolveNearestMaxKm: float("RESOLVE_NEAREST_MAX_KM", 2.0),

		TaxonomyPath: os.Getenv("TAXONOMY_PATH"),

		CatalogBackend:     strings.ToLower(str("CATALOG_BACKEND", "postgres")),
		CatalogFixturePath: str("CATALOG_FIXTURE_PATH", "data/catalog.yaml"),

		GeoIPPath: os.Getenv("GEOIP_PATH"),

		RateLimitPerSec: float("RATE_LIMIT_PER_SEC", 20),
		RateLimitBurst:  integer("RATE_LIMIT_BURST", 40),

		TLSEnable:   boolean("TLS_ENABLE", false),
		TLSCertPath: str("TLS_CERT_PATH", "data/certs/server.crt"),
		TLSKeyPath:  str("TLS_KEY_PATH", "data/certs/server.key"),

		Weights: Weights{
			Geo:     float("RECOMMEND_WEIGHT_GEO", DefaultWeights().Geo),
			Topic:   float("RECOMMEND_WEIGHT_TOPIC", DefaultWeights().Topic),
			Mandate: float("RECOMMEND_WEIGHT_MANDATE", DefaultWeights().Mandate),
			Level:   float("RECOMMEND_WEIGHT_LEVEL", DefaultWeights().Level),
		},
	}
}

func str(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func integer(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func float(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return def
}

func boolean(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// dur 接受 Go 时长（"1500ms"）或纯毫秒数
func dur(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return time.Duration(n) * time.Millisecond
	}
	return def
}
