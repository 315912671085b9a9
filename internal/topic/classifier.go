// 包 topic：诉求文本 → 话题与主管政府层级
package topic

import (
	"math"
	"sort"

	"wahlkreis-api/internal/gov"
	"wahlkreis-api/internal/metrics"
)

// Match 命中的话题
type Match struct {
	Topic    Topic    `json:"topic"`
	Score    float64  `json:"score"`
	Keywords []string `json:"keywords"`
}

// Classification 分类结果；无命中时 Topics 为空、InferredLevel 为 unknown
type Classification struct {
	Topics        []Match   `json:"topics"`
	InferredLevel gov.Level `json:"inferred_level"`
}

// TopScore 最高得分；无命中为 0
func (c Classification) TopScore() float64 {
	if len(c.Topics) == 0 {
		return 0
	}
	return c.Topics[0].Score
}

// ScoreOf 指定话题的得分
func (c Classification) ScoreOf(id string) float64 {
	for _, m := range c.Topics {
		if m.Topic.ID == id {
			return m.Score
		}
	}
	return 0
}

const scoreEpsilon = 1e-9

// Classifier 无状态，可并发使用
type Classifier struct {
	tx *Taxonomy
}

func NewClassifier(tx *Taxonomy) *Classifier { return &Classifier{tx: tx} }

// Taxonomy 当前使用的分类体系
func (c *Classifier) Taxonomy() *Taxonomy { return c.tx }

// 文档注释：文本分类
// 背景：关键词权重 w = ln(1 + T/df) × 短语词数，越少话题共享、越长的短语越有区分度；
// 话题得分 = Σ w_k (1 + ln c_k) / W_topic，c_k 为出现次数，W_topic 为该话题全部关键词权重之和。
// 约束：得分对每个 c_k 单调不减；排序为得分降序、深度降序、名称升序；最高分并列时层级取更本地者。
func (c *Classifier) Classify(text string) Classification {
	counts := c.tx.matcher.Match(c.tx.tokenizer.Tokenize(text))
	if len(counts) == 0 {
		metrics.ClassifyTotal.WithLabelValues(gov.LevelUnknown.String()).Inc()
		return Classification{Topics: []Match{}, InferredLevel: gov.LevelUnknown}
	}

	type acc struct {
		raw      float64
		keywords []string
	}
	per := map[string]*acc{}
	for kw, n := range counts {
		w := c.tx.weights[kw] * (1 + math.Log(float64(n)))
		for _, t := range c.tx.byKeyword[kw] {
			a := per[t.ID]
			if a == nil {
				a = &acc{}
				per[t.ID] = a
			}
			a.raw += w
			a.keywords = append(a.keywords, kw)
		}
	}

	matches := make([]Match, 0, len(per))
	for id, a := range per {
		t := c.tx.byID[id]
		sort.Strings(a.keywords)
		matches = append(matches, Match{Topic: *t, Score: a.raw / c.tx.topicWeight[id], Keywords: a.keywords})
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if math.Abs(a.Score-b.Score) > scoreEpsilon {
			return a.Score > b.Score
		}
		if a.Topic.Depth != b.Topic.Depth {
			return a.Topic.Depth > b.Topic.Depth
		}
		return a.Topic.Name < b.Topic.Name
	})

	level := matches[0].Topic.Level
	for _, m := range matches[1:] {
		if matches[0].Score-m.Score > scoreEpsilon {
			break
		}
		if m.Topic.Level.Restrictiveness() > level.Restrictiveness() {
			level = m.Topic.Level
		}
	}
	metrics.ClassifyTotal.WithLabelValues(level.String()).Inc()
	return Classification{Topics: matches, InferredLevel: level}
}
