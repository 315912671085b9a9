package recommend

import (
	"fmt"
	"strings"

	"wahlkreis-api/internal/catalog"
	"wahlkreis-api/internal/config"
	"wahlkreis-api/internal/gov"
	"wahlkreis-api/internal/resolve"
	"wahlkreis-api/internal/topic"
)

// Breakdown 各评分分量（未加权）
type Breakdown struct {
	Geo     float64 `json:"geo"`
	Topic   float64 `json:"topic"`
	Mandate float64 `json:"mandate"`
	Level   float64 `json:"level"`
}

// Explanation 解释片段；Kind 取 geo / topic / mandate / level
type Explanation struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// geoScope 议席类型的地理贴近度
func geoScope(s gov.Scope) float64 {
	switch s {
	case gov.ScopeFederalDistrict, gov.ScopeStateDistrict:
		return 1.0
	case gov.ScopeFederalList, gov.ScopeStateList:
		return 0.6
	case gov.ScopeEUAtLarge:
		return 0.3
	}
	panic(fmt.Sprintf("recommend: unhandled scope %s", s))
}

// confidenceFactor 解析置信度对地理分量的折扣
func confidenceFactor(c resolve.Confidence) float64 {
	switch c {
	case resolve.ConfidencePrecise:
		return 1.0
	case resolve.ConfidenceApproximate:
		return 0.8
	case resolve.ConfidenceCoarse:
		return 0.5
	case resolve.ConfidenceNone:
		return 0
	}
	panic(fmt.Sprintf("recommend: unhandled confidence %q", c))
}

// committeeTopics 议员所在委员会负责的话题（分类体系声明 ∪ 目录标签），去重
func committeeTopics(rep catalog.Representative, tx *topic.Taxonomy, tags map[string][]string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, c := range rep.Committees {
		for _, id := range tx.TopicsForCommittee(c) {
			add(id)
		}
		for _, id := range tags[strings.ToLower(strings.TrimSpace(c))] {
			add(id)
		}
	}
	return out
}

// scoreInput 单个候选评分所需的上下文
type scoreInput struct {
	rep          catalog.Representative
	constituency catalog.Constituency
	res          resolve.Resolution
	cls          topic.Classification
	tx           *topic.Taxonomy
	tags         map[string][]string
	weights      config.Weights
}

// 文档注释：计算分量与解释
// 背景：地理 = 议席类型贴近度 × 解析置信度；话题 = 委员会相关话题得分之和；直选 = 1；层级 = 议席层级等于推断层级时为 1。
// 约束：只有加权后非零的分量产生解释片段，顺序固定为 geo、topic、mandate、level。
func score(in scoreInput) (Breakdown, float64, []Explanation) {
	var b Breakdown
	var ex []Explanation
	c := in.constituency

	b.Geo = geoScope(c.Scope) * confidenceFactor(in.res.Confidence)
	if b.Geo*in.weights.Geo > 0 {
		ex = append(ex, Explanation{Kind: "geo", Text: geoText(c, in.res.Confidence)})
	}

	var matched []string
	for _, id := range committeeTopics(in.rep, in.tx, in.tags) {
		if s := in.cls.ScoreOf(id); s > 0 {
			b.Topic += s
			if t, ok := in.tx.Topic(id); ok {
				matched = append(matched, t.Name)
			} else {
				matched = append(matched, id)
			}
		}
	}
	if b.Topic*in.weights.Topic > 0 {
		ex = append(ex, Explanation{Kind: "topic", Text: fmt.Sprintf("Committee work covers your concern: %s", strings.Join(matched, ", "))})
	}

	if c.Scope.DirectMandate() {
		b.Mandate = 1
		if in.weights.Mandate > 0 {
			ex = append(ex, Explanation{Kind: "mandate", Text: "Directly elected in your constituency"})
		}
	}

	if in.cls.InferredLevel != gov.LevelUnknown && c.Scope.Level() == in.cls.InferredLevel {
		b.Level = 1
		if in.weights.Level > 0 {
			ex = append(ex, Explanation{Kind: "level", Text: fmt.Sprintf("Your concern is mainly a %s matter", in.cls.InferredLevel)})
		}
	}
	w := in.weights
	total := w.Geo*b.Geo + w.Topic*b.Topic + w.Mandate*b.Mandate + w.Level*b.Level
	return b, total, ex
}

func geoText(c catalog.Constituency, conf resolve.Confidence) string {
	var s string
	switch c.Scope {
	case gov.ScopeFederalDistrict:
		s = fmt.Sprintf("Represents your Bundestag constituency %s %s", c.ExternalID, c.Name)
	case gov.ScopeStateDistrict:
		s = fmt.Sprintf("Represents your state constituency %s %s", c.ExternalID, c.Name)
	case gov.ScopeFederalList:
		s = fmt.Sprintf("Elected via the %s list for the Bundestag", c.Region)
	case gov.ScopeStateList:
		s = fmt.Sprintf("Elected via the %s list for the state parliament", c.Region)
	case gov.ScopeEUAtLarge:
		s = "Represents Germany in the European Parliament"
	default:
		panic(fmt.Sprintf("recommend: unhandled scope %s", c.Scope))
	}
	if conf != resolve.ConfidencePrecise {
		s += fmt.Sprintf(" (location %s)", conf)
	}
	return s
}
