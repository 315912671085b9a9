// 包 gov：政府层级、议席类型与选区标识等跨模块共享的领域类型
package gov

import (
	"fmt"
	"strings"
)

// Level 政府层级
// 约束：Restrictiveness 越大表示越“本地”；Unknown 仅用于话题推断无结果时。
type Level int

const (
	LevelUnknown Level = iota
	LevelEU
	LevelFederal
	LevelState
	LevelLocal
)

// EUCountryCode 欧盟层级的选区标识恒为国家代码
const EUCountryCode = "DE"

func (l Level) String() string {
	switch l {
	case LevelEU:
		return "eu"
	case LevelFederal:
		return "federal"
	case LevelState:
		return "state"
	case LevelLocal:
		return "local"
	}
	return "unknown"
}

// Restrictiveness 层级的本地化程度，用于话题推断并列时偏向更本地的层级
func (l Level) Restrictiveness() int {
	switch l {
	case LevelLocal:
		return 4
	case LevelState:
		return 3
	case LevelFederal:
		return 2
	case LevelEU:
		return 1
	}
	return 0
}

// ParseLevel 解析配置与数据库中的层级文本，大小写不敏感
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "eu":
		return LevelEU, nil
	case "federal", "bund":
		return LevelFederal, nil
	case "state", "land":
		return LevelState, nil
	case "local", "kommune":
		return LevelLocal, nil
	case "", "unknown":
		return LevelUnknown, nil
	}
	return LevelUnknown, fmt.Errorf("parse level %q: %w", s, ErrInvalidInput)
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(b []byte) error {
	v, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
