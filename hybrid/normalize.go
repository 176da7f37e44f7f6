package hybrid

import "github.com/rushteam/newsrec/core"

// minMaxNormalize 把一组候选的分数线性映射到 [0,1]：
// 最小值映射为 0，最大值映射为 1；所有分数相同（含单元素）时统一记为 1.0，
// 避免除零。空列表返回空 map，不参与融合。
func minMaxNormalize(items []core.ScoredArticle) map[int64]float64 {
	if len(items) == 0 {
		return map[int64]float64{}
	}
	min, max := items[0].Score, items[0].Score
	for _, it := range items[1:] {
		if it.Score < min {
			min = it.Score
		}
		if it.Score > max {
			max = it.Score
		}
	}
	out := make(map[int64]float64, len(items))
	if max == min {
		for _, it := range items {
			out[it.ArticleID] = 1.0
		}
		return out
	}
	span := max - min
	for _, it := range items {
		out[it.ArticleID] = (it.Score - min) / span
	}
	return out
}
