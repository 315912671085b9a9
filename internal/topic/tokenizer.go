package topic

import (
	"strings"
	"unicode"
)

var umlauts = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss", "ẞ", "ss")

// Tokenizer 文本切分与规范化：小写、变音折叠、去停用词
type Tokenizer struct {
	stopwords map[string]struct{}
}

// NewTokenizer 停用词按同样规则折叠后存储
func NewTokenizer(stopwords []string) *Tokenizer {
	stops := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		stops[fold(w)] = struct{}{}
	}
	return &Tokenizer{stopwords: stops}
}

// Tokenize 按字母、数字与连字符切分；纯数字与单字符词丢弃
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder
	flush := func() {
		if current.Len() == 0 {
			return
		}
		if w := t.processToken(current.String()); w != "" {
			tokens = append(tokens, w)
		}
		current.Reset()
	}
	for _, r := range fold(text) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '-' {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return tokens
}

func (t *Tokenizer) processToken(token string) string {
	word := strings.Trim(token, "-")
	for strings.Contains(word, "--") {
		word = strings.ReplaceAll(word, "--", "-")
	}
	if len(word) <= 1 || isNumericOnly(word) {
		return ""
	}
	if _, stop := t.stopwords[word]; stop {
		return ""
	}
	return word
}

func fold(s string) string {
	return umlauts.Replace(strings.ToLower(s))
}

func isNumericOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return true
}
