// 包 resolve：地址 → 联邦/州/EU 选区与对应议席，按策略链逐级降级
package resolve

import (
	"regexp"
	"strings"
	"unicode"
)

var plzPattern = regexp.MustCompile(`\b\d{5}\b`)

// 文档注释：请求地址
// 背景：既可按结构化字段提交，也可只提交一行自由文本；两者同时存在时以 Line 为准。
// 约束：仅在请求内存中存在，不写入任何持久存储，日志中不输出原文。
type Address struct {
	Line       string `json:"line,omitempty" validate:"omitempty,max=300"`
	Street     string `json:"street,omitempty" validate:"omitempty,max=200"`
	PostalCode string `json:"postal_code,omitempty" validate:"omitempty,numeric,len=5"`
	City       string `json:"city,omitempty" validate:"omitempty,max=120"`
	Country    string `json:"country,omitempty" validate:"omitempty,min=2,max=40"`
}

// Empty 所有字段均为空
func (a Address) Empty() bool {
	return strings.TrimSpace(a.Line+a.Street+a.PostalCode+a.City) == ""
}

// Domestic 未指定国家或国家为德国
func (a Address) Domestic() bool {
	switch strings.ToLower(strings.TrimSpace(a.Country)) {
	case "", "de", "deu", "germany", "deutschland":
		return true
	}
	return false
}

// Postal 显式邮编优先，其次从自由文本中提取第一个五位数字
func (a Address) Postal() string {
	if p := strings.TrimSpace(a.PostalCode); len(p) == 5 && isDigits(p) {
		return p
	}
	return plzPattern.FindString(a.Line)
}

// 文档注释：是否值得调用外部地理编码
// 背景：只有邮编（或邮编加城市的结构化字段）时地理编码只能给出区域中心，会被误判为精确命中；此时直接走邮编前缀降级。
// 约束：结构化地址需有街道；自由文本去掉邮编后仍需含字母。
func (a Address) Geocodable() bool {
	if strings.TrimSpace(a.Line) != "" {
		rest := plzPattern.ReplaceAllString(a.Line, "")
		return strings.IndexFunc(rest, unicode.IsLetter) >= 0
	}
	return strings.TrimSpace(a.Street) != ""
}

// Query 发送给地理编码服务的查询文本
func (a Address) Query() string {
	if l := strings.TrimSpace(a.Line); l != "" {
		return l
	}
	var parts []string
	if s := strings.TrimSpace(a.Street); s != "" {
		parts = append(parts, s)
	}
	if pc := strings.TrimSpace(strings.TrimSpace(a.PostalCode) + " " + strings.TrimSpace(a.City)); pc != "" {
		parts = append(parts, pc)
	}
	return strings.Join(parts, ", ")
}

// CountryCode 地理编码使用的国家代码
func (a Address) CountryCode() string {
	if a.Domestic() {
		return "DE"
	}
	return strings.ToUpper(strings.TrimSpace(a.Country))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
