package text

import (
	"sort"
	"strings"
	"unicode"
)

// Tokenizer 是分词能力抽象，按部署语种插拔实现。
type Tokenizer interface {
	Tokenize(text string) []string
}

// Keyword 是带相关度的关键词。
type Keyword struct {
	Text   string
	Weight float64
}

// KeywordExtractor 是关键词抽取能力抽象：从文本中取出 topK 个按相关度排序的关键词。
type KeywordExtractor interface {
	ExtractKeywords(text string, topK int) []Keyword
}

// defaultStopwords 中文高频停用词 + 少量英文停用词。
func defaultStopwords() map[string]struct{} {
	words := []string{
		"的", "了", "在", "是", "我", "有", "和", "就", "不", "人", "都",
		"一", "一个", "上", "也", "很", "到", "说", "要", "去", "你", "会",
		"着", "没有", "看", "好", "自己", "这", "那", "什么", "他", "她",
		"the", "a", "an", "of", "and", "or", "to", "in", "is", "it", "for",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// StandardTokenizer 是基于 unicode 切分的简易分词器：按非字母/数字字符切词，
// 小写化并过滤停用词。适合拉丁语料与测试；中文生产环境使用 GseTokenizer。
// 同时提供一个按词频排序的退化关键词抽取实现。
type StandardTokenizer struct {
	Stopwords map[string]struct{}
}

// NewStandardTokenizer 创建带默认停用词表的分词器。
func NewStandardTokenizer() *StandardTokenizer {
	return &StandardTokenizer{Stopwords: defaultStopwords()}
}

func (t *StandardTokenizer) Tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.ToLower(f)
		if w == "" {
			continue
		}
		if t.Stopwords != nil {
			if _, ok := t.Stopwords[w]; ok {
				continue
			}
		}
		out = append(out, w)
	}
	return out
}

// ExtractKeywords 以词频为相关度的退化实现：相关度 = 词频 / 最大词频。
func (t *StandardTokenizer) ExtractKeywords(s string, topK int) []Keyword {
	if topK <= 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, w := range t.Tokenize(s) {
		counts[w]++
	}
	if len(counts) == 0 {
		return nil
	}
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	out := make([]Keyword, 0, len(counts))
	for w, c := range counts {
		out = append(out, Keyword{Text: w, Weight: float64(c) / float64(max)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Text < out[j].Text
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

var (
	_ Tokenizer        = (*StandardTokenizer)(nil)
	_ KeywordExtractor = (*StandardTokenizer)(nil)
)
