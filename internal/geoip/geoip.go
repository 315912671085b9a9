// 包 geoip：基于 MaxMind City 库的粗略位置提示
package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"

	"wahlkreis-api/internal/gov"
	"wahlkreis-api/internal/logger"
)

// ErrNoHint 该 IP 没有可用的邮编提示
var ErrNoHint = errors.New("geoip: no hint")

// Hint IP 推断出的粗略位置
type Hint struct {
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Region     string `json:"region,omitempty"`
}

type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
	Close() error
}

// 文档注释：IP 位置提示
// 背景：仅在请求显式开启时使用；查询结果只用于本次解析。
// 约束：IP 不写日志、不入缓存；nil 接收者等价于未配置，始终返回 ErrNoHint。
type Locator struct {
	r cityReader
}

// Open 打开 mmdb 文件；path 为空返回 nil, nil
func Open(path string) (*Locator, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open %s: %w", path, err)
	}
	logger.L().Info("geoip_loaded", "type", r.Metadata().DatabaseType)
	return &Locator{r: r}, nil
}

func (l *Locator) Close() error {
	if l == nil || l.r == nil {
		return nil
	}
	return l.r.Close()
}

// PostalHint ip → 邮编与国家；无邮编时返回 ErrNoHint
func (l *Locator) PostalHint(ip string) (Hint, error) {
	if l == nil || l.r == nil {
		return Hint{}, ErrNoHint
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return Hint{}, fmt.Errorf("geoip: invalid ip: %w", ErrNoHint)
	}
	if parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		return Hint{}, ErrNoHint
	}
	c, err := l.r.City(parsed)
	if err != nil {
		return Hint{}, fmt.Errorf("geoip: lookup: %w", err)
	}
	h := Hint{PostalCode: strings.TrimSpace(c.Postal.Code), Country: strings.ToUpper(c.Country.IsoCode)}
	if len(c.Subdivisions) > 0 {
		if st, ok := gov.StateByCode(c.Subdivisions[0].IsoCode); ok && h.Country == "DE" {
			h.Region = st.Name
		}
	}
	if h.PostalCode == "" {
		return h, ErrNoHint
	}
	return h, nil
}
