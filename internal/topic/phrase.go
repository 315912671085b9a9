package topic

import "strings"

// phraseMatcher 关键词（单词或多词短语）识别，贪婪最长匹配
type phraseMatcher struct {
	dict   map[string]struct{}
	maxLen int
}

func newPhraseMatcher(phrases []string) *phraseMatcher {
	p := &phraseMatcher{dict: make(map[string]struct{}, len(phrases)), maxLen: 1}
	for _, ph := range phrases {
		p.dict[ph] = struct{}{}
		if l := len(strings.Fields(ph)); l > p.maxLen {
			p.maxLen = l
		}
	}
	return p
}

// Match 返回 token 序列中识别出的关键词及出现次数；被较长短语覆盖的词不再单独计数
func (p *phraseMatcher) Match(tokens []string) map[string]int {
	counts := map[string]int{}
	i := 0
	for i < len(tokens) {
		n := p.maxLen
		if remaining := len(tokens) - i; n > remaining {
			n = remaining
		}
		matched := 0
		for ; n >= 1; n-- {
			phrase := strings.Join(tokens[i:i+n], " ")
			if _, ok := p.dict[phrase]; ok {
				counts[phrase]++
				matched = n
				break
			}
		}
		if matched > 0 {
			i += matched
		} else {
			i++
		}
	}
	return counts
}
