package recall

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/newsrec/core"
)

// LatentModel 是隐因子协同过滤模型（截断 SVD）。
//
// 核心思想：把稀疏的用户×文章交互矩阵分解为低秩的用户/文章隐向量，
// 预测分数 = 用户隐向量 · 文章隐向量。
//
// 算法流程：
//  1. 按 (user, article) 聚合交互权重（求和，不覆盖）
//  2. 构建用户×文章矩阵，记录全局平均权重
//  3. 两个维度都大于 k 时做截断 SVD（秩 k）；否则退化为直接表示：
//     用户向量 = 原始交互权重行，文章向量 = 单位阵 —— 这是定义良好的回退，不是错误
//
// Fit 之后只读，无需加锁；重训时整体替换实例。
type LatentModel struct {
	// Factors 隐因子数，0 表示默认 50
	Factors int

	userIndex   map[int64]int
	itemIndex   map[int64]int
	users       []int64
	items       []int64
	userFactors [][]float64
	itemFactors [][]float64
	interacted  []map[int64]struct{} // 按用户下标记录已交互文章
	globalMean  float64
}

// Fit 基于交互数据训练模型。输入为空时不训练。
func (m *LatentModel) Fit(interactions []*core.Interaction) {
	if len(interactions) == 0 {
		return
	}

	// 聚合 (user, article) 权重；首次出现即分配下标，保证确定性
	userIndex := make(map[int64]int)
	itemIndex := make(map[int64]int)
	users := make([]int64, 0)
	items := make([]int64, 0)
	agg := make(map[int64]map[int64]float64)
	for _, it := range interactions {
		if _, ok := userIndex[it.UserID]; !ok {
			userIndex[it.UserID] = len(users)
			users = append(users, it.UserID)
		}
		if _, ok := itemIndex[it.ArticleID]; !ok {
			itemIndex[it.ArticleID] = len(items)
			items = append(items, it.ArticleID)
		}
		if agg[it.UserID] == nil {
			agg[it.UserID] = make(map[int64]float64)
		}
		agg[it.UserID][it.ArticleID] += it.Weight
	}

	nUsers, nItems := len(users), len(items)

	// 全局平均：聚合后每个 (user, article) 权重的均值
	var sum float64
	var pairs int
	for _, row := range agg {
		for _, w := range row {
			sum += w
			pairs++
		}
	}
	globalMean := sum / float64(pairs)

	k := m.Factors
	if k <= 0 {
		k = 50
	}

	var userFactors, itemFactors [][]float64
	if nUsers > k && nItems > k {
		// 截断 SVD：用户因子 = U_k · Σ_k，文章因子 = V_k
		dense := mat.NewDense(nUsers, nItems, nil)
		for uid, row := range agg {
			for aid, w := range row {
				dense.Set(userIndex[uid], itemIndex[aid], w)
			}
		}
		var svd mat.SVD
		if svd.Factorize(dense, mat.SVDThin) {
			var u, v mat.Dense
			svd.UTo(&u)
			svd.VTo(&v)
			s := svd.Values(nil)
			userFactors = make([][]float64, nUsers)
			for i := 0; i < nUsers; i++ {
				vec := make([]float64, k)
				for f := 0; f < k; f++ {
					vec[f] = u.At(i, f) * s[f]
				}
				userFactors[i] = vec
			}
			itemFactors = make([][]float64, nItems)
			for j := 0; j < nItems; j++ {
				vec := make([]float64, k)
				for f := 0; f < k; f++ {
					vec[f] = v.At(j, f)
				}
				itemFactors[j] = vec
			}
		}
	}
	if userFactors == nil {
		// 回退表示：用户向量 = 原始权重行，文章向量 = 单位阵
		userFactors = make([][]float64, nUsers)
		for uid, row := range agg {
			vec := make([]float64, nItems)
			for aid, w := range row {
				vec[itemIndex[aid]] = w
			}
			userFactors[userIndex[uid]] = vec
		}
		itemFactors = make([][]float64, nItems)
		for j := 0; j < nItems; j++ {
			vec := make([]float64, nItems)
			vec[j] = 1
			itemFactors[j] = vec
		}
	}

	interacted := make([]map[int64]struct{}, nUsers)
	for uid, row := range agg {
		set := make(map[int64]struct{}, len(row))
		for aid := range row {
			set[aid] = struct{}{}
		}
		interacted[userIndex[uid]] = set
	}

	m.userIndex = userIndex
	m.itemIndex = itemIndex
	m.users = users
	m.items = items
	m.userFactors = userFactors
	m.itemFactors = itemFactors
	m.interacted = interacted
	m.globalMean = globalMean
}

// Trained 返回模型是否已完成训练。
func (m *LatentModel) Trained() bool {
	return m.userFactors != nil
}

// GlobalMean 返回全局平均交互权重。
func (m *LatentModel) GlobalMean() float64 {
	return m.globalMean
}

// PredictScore 预测用户对文章的分数（下限为 0）。
// 任一 ID 未见过时返回全局平均权重，从不报错。
func (m *LatentModel) PredictScore(userID, articleID int64) float64 {
	ui, okU := m.userIndex[userID]
	ai, okA := m.itemIndex[articleID]
	if !okU || !okA || !m.Trained() {
		return m.globalMean
	}
	score := dotDense(m.userFactors[ui], m.itemFactors[ai])
	if score < 0 {
		return 0
	}
	return score
}

// RecommendForUser 为用户推荐未交互过且不在 exclude 中的文章，按预测分数降序。
// 未知用户或未训练时返回空结果。
func (m *LatentModel) RecommendForUser(userID int64, topN int, exclude []int64) []core.ScoredArticle {
	ui, ok := m.userIndex[userID]
	if !ok || !m.Trained() {
		return nil
	}
	if topN <= 0 {
		topN = 10
	}
	excludeSet := make(map[int64]struct{}, len(exclude))
	for _, id := range exclude {
		excludeSet[id] = struct{}{}
	}

	out := make([]core.ScoredArticle, 0, len(m.items))
	for j, aid := range m.items {
		if _, skip := m.interacted[ui][aid]; skip {
			continue
		}
		if _, skip := excludeSet[aid]; skip {
			continue
		}
		score := dotDense(m.userFactors[ui], m.itemFactors[j])
		if score < 0 {
			score = 0
		}
		out = append(out, core.ScoredArticle{ArticleID: aid, Score: score})
	}
	sortScored(out)
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// SimilarUsers 返回隐向量点积最大的 topN 个用户（不含自身，仅保留严格正相似度）。
func (m *LatentModel) SimilarUsers(userID int64, topN int) []core.ScoredUser {
	ui, ok := m.userIndex[userID]
	if !ok || !m.Trained() {
		return nil
	}
	if topN <= 0 {
		topN = 10
	}
	out := make([]core.ScoredUser, 0, len(m.users))
	for i, uid := range m.users {
		if i == ui {
			continue
		}
		sim := dotDense(m.userFactors[ui], m.userFactors[i])
		if sim > 0 {
			out = append(out, core.ScoredUser{UserID: uid, Similarity: sim})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// dotDense 计算两个稠密向量的点积。
func dotDense(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
