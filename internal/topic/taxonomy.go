package topic

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"wahlkreis-api/internal/gov"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// Topic 话题节点
type Topic struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Parent     string    `json:"parent,omitempty"`
	Level      gov.Level `json:"level"`
	Committees []string  `json:"committees,omitempty"`
	Depth      int       `json:"depth"`

	keywords []string // 折叠后的关键词
}

type taxonomyFile struct {
	Stopwords []string `yaml:"stopwords"`
	Topics    []struct {
		ID         string   `yaml:"id"`
		Name       string   `yaml:"name"`
		Parent     string   `yaml:"parent"`
		Level      string   `yaml:"level"`
		Committees []string `yaml:"committees"`
		Keywords   []string `yaml:"keywords"`
	} `yaml:"topics"`
}

// 文档注释：话题分类体系
// 背景：话题按父子关系组织，越深越具体；每个话题声明主管层级与负责的委员会名称。
// 约束：加载时校验 id 唯一、父节点存在且无环、层级可识别、每个话题至少一个关键词；关键词权重在加载时一次算好。
type Taxonomy struct {
	topics      []*Topic
	byID        map[string]*Topic
	tokenizer   *Tokenizer
	weights     map[string]float64  // 关键词 → 特异性权重
	topicWeight map[string]float64  // 话题 → 关键词权重之和
	byKeyword   map[string][]*Topic // 关键词 → 包含它的话题
	byCommittee map[string][]string // 小写委员会名称 → 话题 id
	matcher     *phraseMatcher
}

// DefaultTaxonomy 内置分类体系
func DefaultTaxonomy() (*Taxonomy, error) { return ParseTaxonomy(defaultTaxonomy) }

// LoadTaxonomy path 为空时使用内置分类体系
func LoadTaxonomy(path string) (*Taxonomy, error) {
	if path == "" {
		return DefaultTaxonomy()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTaxonomy(b)
}

// ParseTaxonomy 解析并校验 YAML
func ParseTaxonomy(b []byte) (*Taxonomy, error) {
	var f taxonomyFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("taxonomy: %w", err)
	}
	tx := &Taxonomy{
		byID:        map[string]*Topic{},
		tokenizer:   NewTokenizer(f.Stopwords),
		weights:     map[string]float64{},
		topicWeight: map[string]float64{},
		byKeyword:   map[string][]*Topic{},
		byCommittee: map[string][]string{},
	}
	for _, ft := range f.Topics {
		if ft.ID == "" {
			return nil, fmt.Errorf("taxonomy: topic without id: %w", gov.ErrInvalidInput)
		}
		if _, dup := tx.byID[ft.ID]; dup {
			return nil, fmt.Errorf("taxonomy: duplicate topic %q: %w", ft.ID, gov.ErrInvalidInput)
		}
		lvl, err := gov.ParseLevel(ft.Level)
		if err != nil || lvl == gov.LevelUnknown {
			return nil, fmt.Errorf("taxonomy: topic %q level %q: %w", ft.ID, ft.Level, gov.ErrInvalidInput)
		}
		t := &Topic{ID: ft.ID, Name: ft.Name, Parent: ft.Parent, Level: lvl, Committees: ft.Committees}
		if t.Name == "" {
			t.Name = t.ID
		}
		seen := map[string]bool{}
		for _, kw := range ft.Keywords {
			phrase := strings.Join(tx.tokenizer.Tokenize(kw), " ")
			if phrase == "" {
				return nil, fmt.Errorf("taxonomy: topic %q keyword %q is empty after normalisation: %w", ft.ID, kw, gov.ErrInvalidInput)
			}
			if !seen[phrase] {
				seen[phrase] = true
				t.keywords = append(t.keywords, phrase)
			}
		}
		if len(t.keywords) == 0 {
			return nil, fmt.Errorf("taxonomy: topic %q has no keywords: %w", ft.ID, gov.ErrInvalidInput)
		}
		tx.topics = append(tx.topics, t)
		tx.byID[t.ID] = t
	}
	if len(tx.topics) == 0 {
		return nil, fmt.Errorf("taxonomy: no topics: %w", gov.ErrInvalidInput)
	}
	for _, t := range tx.topics {
		d, err := tx.depth(t)
		if err != nil {
			return nil, err
		}
		t.Depth = d
	}

	var phrases []string
	for _, t := range tx.topics {
		for _, kw := range t.keywords {
			if len(tx.byKeyword[kw]) == 0 {
				phrases = append(phrases, kw)
			}
			tx.byKeyword[kw] = append(tx.byKeyword[kw], t)
		}
		for _, c := range t.Committees {
			k := strings.ToLower(strings.TrimSpace(c))
			tx.byCommittee[k] = append(tx.byCommittee[k], t.ID)
		}
	}
	total := float64(len(tx.topics))
	for kw, ts := range tx.byKeyword {
		tx.weights[kw] = math.Log(1+total/float64(len(ts))) * float64(len(strings.Fields(kw)))
	}
	for _, t := range tx.topics {
		for _, kw := range t.keywords {
			tx.topicWeight[t.ID] += tx.weights[kw]
		}
	}
	sort.Strings(phrases)
	tx.matcher = newPhraseMatcher(phrases)
	return tx, nil
}

// depth 根节点为 0；父节点缺失或成环时报错
func (tx *Taxonomy) depth(t *Topic) (int, error) {
	d := 0
	seen := map[string]bool{t.ID: true}
	for cur := t; cur.Parent != ""; d++ {
		p, ok := tx.byID[cur.Parent]
		if !ok {
			return 0, fmt.Errorf("taxonomy: topic %q has unknown parent %q: %w", cur.ID, cur.Parent, gov.ErrInvalidInput)
		}
		if seen[p.ID] {
			return 0, fmt.Errorf("taxonomy: cycle through %q: %w", p.ID, gov.ErrInvalidInput)
		}
		seen[p.ID] = true
		cur = p
	}
	return d, nil
}

// Topic 按 id 查找
func (tx *Taxonomy) Topic(id string) (Topic, bool) {
	t, ok := tx.byID[id]
	if !ok {
		return Topic{}, false
	}
	return *t, true
}

// Topics 全部话题，按加载顺序
func (tx *Taxonomy) Topics() []Topic {
	out := make([]Topic, 0, len(tx.topics))
	for _, t := range tx.topics {
		out = append(out, *t)
	}
	return out
}

// TopicsForCommittee 声明由该委员会负责的话题 id（名称大小写不敏感）
func (tx *Taxonomy) TopicsForCommittee(name string) []string {
	return tx.byCommittee[strings.ToLower(strings.TrimSpace(name))]
}

// Keywords 话题的规范化关键词
func (t Topic) Keywords() []string { return append([]string(nil), t.keywords...) }
