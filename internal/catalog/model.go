// 包 catalog：议会届期、议席与议员目录的只读查询接口
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"wahlkreis-api/internal/gov"
)

// Term 议会届期；Region 仅州议会非空
type Term struct {
	ID       string     `json:"id"`
	Level    gov.Level  `json:"level"`
	Region   string     `json:"region,omitempty"`
	StartsOn time.Time  `json:"starts_on"`
	EndsOn   *time.Time `json:"ends_on,omitempty"`
}

// ActiveAt 届期在 t 时是否有效（起始含、结束不含）
func (t Term) ActiveAt(at time.Time) bool {
	if at.Before(t.StartsOn) {
		return false
	}
	return t.EndsOn == nil || at.Before(*t.EndsOn)
}

// 文档注释：议席单元（选区或名单）
// 背景：直选选区以三位编号为外部标识，州名单与联邦州名单以州代码为外部标识，EU 名单以国家代码为外部标识。
// 约束：Level 由 Scope 决定，入库时保持一致。
type Constituency struct {
	ID         string    `json:"id"`
	TermID     string    `json:"term_id"`
	Level      gov.Level `json:"level"`
	Scope      gov.Scope `json:"scope"`
	Region     string    `json:"region,omitempty"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
}

// Representative 议员；ListPosition 仅名单席位存在
type Representative struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Party          string     `json:"party,omitempty"`
	ConstituencyID string     `json:"constituency_id"`
	ListPosition   *int       `json:"list_position,omitempty"`
	Committees     []string   `json:"committees,omitempty"`
	ActiveFrom     time.Time  `json:"active_from"`
	ActiveUntil    *time.Time `json:"active_until,omitempty"`
}

// ActiveAt 议员在 t 时是否在任
func (r Representative) ActiveAt(at time.Time) bool {
	if at.Before(r.ActiveFrom) {
		return false
	}
	return r.ActiveUntil == nil || at.Before(*r.ActiveUntil)
}

// Catalog 议席查询
// 约束：未找到返回 gov.ErrNotFound（可用 errors.Is 判断）；其余错误为存储故障。
type Catalog interface {
	// ActiveTerm 指定层级（州层级需 region）在 at 时的有效届期；多个重叠时取开始最晚者
	ActiveTerm(ctx context.Context, level gov.Level, region string, at time.Time) (Term, error)
	// ConstituencyByCode 按外部标识查找；region 为空时不按州过滤
	ConstituencyByCode(ctx context.Context, termID string, scope gov.Scope, region, code string) (Constituency, error)
	// ListConstituencies 某届期内某州的指定类型议席
	ListConstituencies(ctx context.Context, termID string, scope gov.Scope, region string) ([]Constituency, error)
}

// Directory 议员目录
type Directory interface {
	RepresentativesFor(ctx context.Context, constituencyID string, at time.Time) ([]Representative, error)
	// CommitteeTopics 委员会名称 → 话题 id 标签
	CommitteeTopics(ctx context.Context) (map[string][]string, error)
}

// Store 同时提供两类查询的存储
type Store interface {
	Catalog
	Directory
}
