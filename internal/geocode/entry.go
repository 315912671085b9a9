// 包 geocode：地址 → 坐标，带多级缓存、外部调用节流与并发合并
package geocode

import (
	"context"
	"time"
)

// Reason 失败原因
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonUnavailable Reason = "unavailable"
	ReasonNoMatch     Reason = "no_match"
)

// 文档注释：地理编码缓存条目
// 背景：只存地址哈希与结果，不存原文；失败同样缓存，避免对外部服务重复请求无解地址。
// 约束：成功条目不可变；失败条目仅在启用刷新策略后可被更新的结果覆盖（UpdatedAt 更晚者胜）。
type Entry struct {
	Key       string
	Lat       float64
	Lon       float64
	Success   bool
	Reason    Reason
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Cache 缓存层接口；实现须并发安全
// Put 语义：键不存在时写入；已存在的失败条目且新条目 UpdatedAt 更晚时覆盖；其余情况忽略。
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Put(ctx context.Context, e Entry) error
}

// replaces 判断新条目是否可以覆盖已有条目
func replaces(cur, next Entry) bool {
	return !cur.Success && next.UpdatedAt.After(cur.UpdatedAt)
}
