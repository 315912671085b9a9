package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wahlkreis-api/internal/logger"
	"wahlkreis-api/internal/metrics"
)

// ErrNoMatch 外部服务正常响应但没有结果
var ErrNoMatch = errors.New("geocode: no match")

// Searcher 外部地理编码服务
type Searcher interface {
	Search(ctx context.Context, query, country string) (lat, lon float64, err error)
}

// searchHit Nominatim jsonv2 响应项，仅解析坐标
type searchHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Client Nominatim 兼容的 HTTP 客户端
type Client struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
}

// NewClient timeout 为单次外部请求超时，独立于调用方 ctx
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: userAgent,
		HTTP:      &http.Client{Timeout: timeout},
	}
}

// 文档注释：查询单个地址的坐标
// 背景：GET {base}/search?q=..&countrycodes=..&limit=1&format=jsonv2；服务方要求携带可识别的 User-Agent。
// 返回：首个结果的坐标；空数组返回 ErrNoMatch；网络错误、非 2xx、坐标非数值或越界返回其他错误。
// 约束：日志中不记录查询原文。
func (c *Client) Search(ctx context.Context, query, country string) (float64, float64, error) {
	cc := strings.ToLower(strings.TrimSpace(country))
	if cc == "" {
		cc = "de"
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("countrycodes", cc)
	q.Set("limit", "1")
	q.Set("format", "jsonv2")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return 0, 0, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	t0 := time.Now()
	metrics.GeocodeAPIRequestsTotal.Inc()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		logger.L().Warn("geocode_http_error", "err", err)
		metrics.GeocodeAPIFailTotal.WithLabelValues("http").Inc()
		return 0, 0, err
	}
	defer resp.Body.Close()
	dur := time.Since(t0).Milliseconds()
	metrics.GeocodeAPIDurationMs.Observe(float64(dur))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.L().Warn("geocode_http_status", "status", resp.StatusCode, "duration_ms", dur)
		metrics.GeocodeAPIFailTotal.WithLabelValues("status").Inc()
		return 0, 0, fmt.Errorf("geocode: upstream status %d", resp.StatusCode)
	}
	var hits []searchHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		logger.L().Warn("geocode_decode_error", "err", err)
		metrics.GeocodeAPIFailTotal.WithLabelValues("decode").Inc()
		return 0, 0, err
	}
	if len(hits) == 0 {
		logger.L().Debug("geocode_resp", "hits", 0, "duration_ms", dur)
		return 0, 0, ErrNoMatch
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(hits[0].Lat), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(hits[0].Lon), 64)
	if err1 != nil || err2 != nil || !validCoordinates(lat, lon) {
		metrics.GeocodeAPIFailTotal.WithLabelValues("coordinates").Inc()
		return 0, 0, fmt.Errorf("geocode: invalid coordinates")
	}
	logger.L().Debug("geocode_resp", "hits", len(hits), "duration_ms", dur)
	return lat, lon, nil
}

// validCoordinates 有限值且在经纬度范围内
func validCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
