package recall

import (
	"math"
	"sort"
	"strings"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/text"
)

// ContentModel 是基于内容的相似度模型（TF-IDF + 余弦相似度）。
//
// 核心思想："文本特征相近的文章相互相似"
//
// 算法流程：
//  1. 每篇文章拼接 标题 + 摘要 + 标签 + 分类 为一段文本
//  2. 分词（语种相关，停用词过滤），建立语料词表（fit 时冻结）
//  3. 计算 TF-IDF 向量并做 L2 归一化
//  4. 相似度 = 归一化向量的点积（即余弦相似度）
//
// Fit 之后只读，无需加锁；重训时整体替换实例。
type ContentModel struct {
	// MaxFeatures 词表上限，0 表示默认 5000；超出时按语料词频保留
	MaxFeatures int

	// Tokenizer 分词实现，nil 表示 StandardTokenizer
	Tokenizer text.Tokenizer

	vectors map[int64]map[string]float64 // 文章 -> 归一化 TF-IDF 向量
	order   []int64                      // fit 时的文章顺序，保证遍历确定性
}

// Fit 基于文章语料建立特征向量。输入为空时不训练（保持未训练状态）。
func (m *ContentModel) Fit(articles []*core.Article) {
	if len(articles) == 0 {
		return
	}
	tok := m.Tokenizer
	if tok == nil {
		tok = text.NewStandardTokenizer()
	}

	// 分词 + 文档频率统计
	docs := make([][]string, len(articles))
	docFreq := make(map[string]int)
	termFreq := make(map[string]int)
	for i, a := range articles {
		combined := strings.Join([]string{a.Title, a.Summary, strings.Join(a.Tags, " "), a.Category}, " ")
		tokens := tok.Tokenize(combined)
		docs[i] = tokens
		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			termFreq[t]++
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			docFreq[t]++
		}
	}

	// 词表截断：按语料词频保留 MaxFeatures 个词
	maxFeatures := m.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = 5000
	}
	vocab := make(map[string]struct{}, len(docFreq))
	if len(docFreq) <= maxFeatures {
		for t := range docFreq {
			vocab[t] = struct{}{}
		}
	} else {
		terms := make([]string, 0, len(termFreq))
		for t := range termFreq {
			terms = append(terms, t)
		}
		sort.Slice(terms, func(i, j int) bool {
			if termFreq[terms[i]] != termFreq[terms[j]] {
				return termFreq[terms[i]] > termFreq[terms[j]]
			}
			return terms[i] < terms[j]
		})
		for _, t := range terms[:maxFeatures] {
			vocab[t] = struct{}{}
		}
	}

	// TF-IDF（平滑 idf）+ L2 归一化
	n := float64(len(articles))
	m.vectors = make(map[int64]map[string]float64, len(articles))
	m.order = make([]int64, 0, len(articles))
	for i, a := range articles {
		tf := make(map[string]float64)
		for _, t := range docs[i] {
			if _, ok := vocab[t]; ok {
				tf[t]++
			}
		}
		vec := make(map[string]float64, len(tf))
		var norm float64
		for t, f := range tf {
			w := f * (math.Log((1+n)/(1+float64(docFreq[t]))) + 1)
			vec[t] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for t := range vec {
				vec[t] /= norm
			}
		}
		m.vectors[a.ID] = vec
		m.order = append(m.order, a.ID)
	}
}

// Trained 返回模型是否已完成训练。
func (m *ContentModel) Trained() bool {
	return len(m.vectors) > 0
}

// SimilarArticles 返回与指定文章最相似的 topN 篇（按相似度降序，不含自身）。
// 未知 ID 返回空结果，不报错。
func (m *ContentModel) SimilarArticles(articleID int64, topN int) []core.ScoredArticle {
	target, ok := m.vectors[articleID]
	if !ok {
		return nil
	}
	if topN <= 0 {
		topN = 10
	}
	out := make([]core.ScoredArticle, 0, len(m.order))
	for _, id := range m.order {
		if id == articleID {
			continue
		}
		out = append(out, core.ScoredArticle{ArticleID: id, Score: dotSparse(target, m.vectors[id])})
	}
	sortScored(out)
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// RecommendForHistory 以历史文章向量的均值（质心）为兴趣向量，
// 返回与之最相似的 topN 篇；排除 历史 ∪ exclude。
// 历史为空或全部未知时返回空结果。
func (m *ContentModel) RecommendForHistory(history []int64, topN int, exclude []int64) []core.ScoredArticle {
	if len(history) == 0 || !m.Trained() {
		return nil
	}
	if topN <= 0 {
		topN = 10
	}

	centroid := make(map[string]float64)
	known := 0
	for _, id := range history {
		vec, ok := m.vectors[id]
		if !ok {
			continue
		}
		known++
		for t, w := range vec {
			centroid[t] += w
		}
	}
	if known == 0 {
		return nil
	}
	var norm float64
	for t := range centroid {
		centroid[t] /= float64(known)
		norm += centroid[t] * centroid[t]
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)

	excludeSet := make(map[int64]struct{}, len(history)+len(exclude))
	for _, id := range history {
		excludeSet[id] = struct{}{}
	}
	for _, id := range exclude {
		excludeSet[id] = struct{}{}
	}

	out := make([]core.ScoredArticle, 0, len(m.order))
	for _, id := range m.order {
		if _, skip := excludeSet[id]; skip {
			continue
		}
		out = append(out, core.ScoredArticle{ArticleID: id, Score: dotSparse(centroid, m.vectors[id]) / norm})
	}
	sortScored(out)
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// dotSparse 计算两个稀疏向量的点积，遍历较小的一侧。
func dotSparse(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for t, w := range a {
		sum += w * b[t]
	}
	return sum
}

// sortScored 按分数降序排序，分数相同按 ID 升序，保证结果确定。
func sortScored(items []core.ScoredArticle) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ArticleID < items[j].ArticleID
	})
}
