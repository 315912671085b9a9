package geocode

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

var folder = strings.NewReplacer(
	"ß", "ss", "ẞ", "ss",
	"ä", "ae", "ö", "oe", "ü", "ue",
	"Ä", "ae", "Ö", "oe", "Ü", "ue",
)

// 文档注释：地址规范化
// 背景：同一地址常以大小写、变音写法与分隔符不同的形式出现（“Straße”/“Strasse”、“Platz der Republik 1,”）；规范化后再哈希可提高缓存命中。
// 约束：小写、折叠 ß 与变音、逗号分号等分隔符视为空白并合并；结果只用于生成缓存键与外部查询，不落盘。
func Normalize(address string) string {
	s := folder.Replace(address)
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) || r == ',' || r == ';' || r == '|' || r == '/' {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// Key 缓存键：sha256(normalize(address) + "|" + lower(country)) 的十六进制
func Key(address, country string) string {
	sum := sha256.Sum256([]byte(Normalize(address) + "|" + strings.ToLower(strings.TrimSpace(country))))
	return hex.EncodeToString(sum[:])
}
