package text

import (
	"strings"

	"github.com/go-ego/gse"
	"github.com/go-ego/gse/hmm/extracker"
)

// GseTokenizer 是面向中文语料的分词/关键词实现：
// 分词使用 gse 内置词典（jieba 词典兼容），关键词抽取使用 TF-IDF 相关度排序。
// 加载词典有一次性开销，进程内复用同一实例即可；读操作并发安全。
type GseTokenizer struct {
	seg       gse.Segmenter
	extractor extracker.TagExtracter
	stopwords map[string]struct{}
}

// NewGseTokenizer 创建并加载默认词典与 IDF 表。
func NewGseTokenizer() (*GseTokenizer, error) {
	t := &GseTokenizer{stopwords: defaultStopwords()}
	if err := t.seg.LoadDict(); err != nil {
		return nil, err
	}
	t.extractor.WithGse(t.seg)
	if err := t.extractor.LoadIdf(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *GseTokenizer) Tokenize(s string) []string {
	words := t.seg.Cut(s, true)
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, ok := t.stopwords[w]; ok {
			continue
		}
		out = append(out, w)
	}
	return out
}

func (t *GseTokenizer) ExtractKeywords(s string, topK int) []Keyword {
	if topK <= 0 {
		return nil
	}
	segs := t.extractor.ExtractTags(s, topK)
	out := make([]Keyword, 0, len(segs))
	for _, sg := range segs {
		out = append(out, Keyword{Text: sg.Text, Weight: sg.Weight})
	}
	return out
}

var (
	_ Tokenizer        = (*GseTokenizer)(nil)
	_ KeywordExtractor = (*GseTokenizer)(nil)
)
