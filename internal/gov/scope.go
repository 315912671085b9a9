package gov

import (
	"fmt"
	"strings"
)

// 文档注释：议席类型（封闭枚举）
// 背景：直选席位与名单席位在同一地域可能同时存在；评分与解释按类型穷举分支处理。
// 约束：新增类型时需同步修改 AllScopes 与所有 switch 分支。
type Scope int

const (
	ScopeFederalDistrict Scope = iota + 1
	ScopeFederalList
	ScopeStateDistrict
	ScopeStateList
	ScopeEUAtLarge
)

var AllScopes = []Scope{ScopeFederalDistrict, ScopeFederalList, ScopeStateDistrict, ScopeStateList, ScopeEUAtLarge}

func (s Scope) String() string {
	switch s {
	case ScopeFederalDistrict:
		return "FEDERAL_DISTRICT"
	case ScopeFederalList:
		return "FEDERAL_LIST"
	case ScopeStateDistrict:
		return "STATE_DISTRICT"
	case ScopeStateList:
		return "STATE_LIST"
	case ScopeEUAtLarge:
		return "EU_AT_LARGE"
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// Level 议席所属的政府层级
func (s Scope) Level() Level {
	switch s {
	case ScopeFederalDistrict, ScopeFederalList:
		return LevelFederal
	case ScopeStateDistrict, ScopeStateList:
		return LevelState
	case ScopeEUAtLarge:
		return LevelEU
	}
	panic(fmt.Sprintf("gov: unhandled scope %d", int(s)))
}

// DirectMandate 是否为选区直选席位
func (s Scope) DirectMandate() bool {
	switch s {
	case ScopeFederalDistrict, ScopeStateDistrict:
		return true
	case ScopeFederalList, ScopeStateList, ScopeEUAtLarge:
		return false
	}
	panic(fmt.Sprintf("gov: unhandled scope %d", int(s)))
}

func ParseScope(v string) (Scope, error) {
	u := strings.ToUpper(strings.TrimSpace(v))
	for _, s := range AllScopes {
		if s.String() == u {
			return s, nil
		}
	}
	return 0, fmt.Errorf("parse scope %q: %w", v, ErrInvalidInput)
}

func (s Scope) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Scope) UnmarshalText(b []byte) error {
	v, err := ParseScope(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
