// Package profile 是用户画像分析器：独立于排序模型，直接消费原始交互数据，
// 产出描述性画像（兴趣标签、分类偏好、活跃模式、行为统计、阅读深度、用户类型）
// 与基于兴趣标签的用户相似度。
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/text"
)

// categoryNames 分类代码到展示名的静态映射，未知代码原样透传。
var categoryNames = map[string]string{
	"OFFICIAL": "Official News",
	"CAMPUS":   "Campus News",
	"COLLEGE":  "College News",
}

// dayNames 星期展示名，周一为 0（与直方图下标一致）。
var dayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// 阅读深度等级，按分数阈值从高到低匹配。
var readingLevels = []struct {
	threshold int
	level     string
	desc      string
}{
	{80, "deep reader", "deeply engaged, favorites and comments frequently"},
	{60, "active reader", "interacts often with clear reading preferences"},
	{40, "regular reader", "steady reading habits"},
	{20, "light reader", "browses occasionally with few interactions"},
	{0, "novice", "just getting started, worth exploring more"},
}

const noHistoryDesc = "no reading history yet"

// Analyzer 按需计算用户画像。画像不跨训练持久化，每次请求重算；
// 可选地用 KeyValueStore 做带 TTL 的结果缓存（纯优化，不影响正确性）。
// 除缓存外无共享可变状态，读操作并发安全。
type Analyzer struct {
	source    core.DataSource
	weights   map[core.ActionKind]float64
	extractor text.KeywordExtractor
	rules     *RuleSet
	log       *slog.Logger

	cache    core.KeyValueStore
	cacheTTL int // 秒
}

// AnalyzerOption 配置 Analyzer 的可选项。
type AnalyzerOption func(*Analyzer)

// WithKeywordExtractor 指定标题关键词抽取实现（中文部署传 text.GseTokenizer）。
func WithKeywordExtractor(e text.KeywordExtractor) AnalyzerOption {
	return func(a *Analyzer) { a.extractor = e }
}

// WithActionWeights 覆盖行为权重。
func WithActionWeights(w map[core.ActionKind]float64) AnalyzerOption {
	return func(a *Analyzer) { a.weights = w }
}

// WithRules 覆盖用户类型规则集。
func WithRules(rs *RuleSet) AnalyzerOption {
	return func(a *Analyzer) { a.rules = rs }
}

// WithCache 启用画像缓存，ttl 为过期秒数（<=0 时默认 3600）。
func WithCache(kv core.KeyValueStore, ttl int) AnalyzerOption {
	return func(a *Analyzer) {
		a.cache = kv
		if ttl <= 0 {
			ttl = 3600
		}
		a.cacheTTL = ttl
	}
}

// WithAnalyzerLogger 指定日志器；默认 slog.Default()。
func WithAnalyzerLogger(log *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.log = log }
}

// NewAnalyzer 创建画像分析器。
func NewAnalyzer(source core.DataSource, opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{
		source:  source,
		weights: core.DefaultActionWeights(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.extractor == nil {
		a.extractor = text.NewStandardTokenizer()
	}
	if a.rules == nil {
		a.rules = MustRuleSet(DefaultTypeRules())
	}
	return a
}

// AnalyzeUser 计算单个用户的完整画像。
// 用户没有任何交互时返回定义良好的空画像（等级 novice、类型 ["new user"]）；
// 数据源失败时同样退回空画像并记录日志，不向调用方抛错。
func (a *Analyzer) AnalyzeUser(ctx context.Context, userID int64) (*core.UserProfile, error) {
	if p := a.cacheGet(ctx, userID); p != nil {
		return p, nil
	}

	all, err := a.source.GetInteractions(ctx)
	if err != nil {
		a.log.Error("load interactions failed, returning empty profile", "user", userID, "err", err)
		return a.emptyProfile(userID), nil
	}
	mine := make([]*core.Interaction, 0)
	for _, it := range all {
		if it.UserID == userID {
			mine = append(mine, it)
		}
	}
	if len(mine) == 0 {
		return a.emptyProfile(userID), nil
	}

	articles := a.loadArticles(ctx)

	stats := a.behaviorStats(mine)
	night, morning := timeOfDayRatios(mine)
	p := &core.UserProfile{
		UserID:             userID,
		InterestTags:       a.interestTags(mine, articles),
		CategoryPreference: a.categoryPreference(mine, articles),
		Activity:           activityPattern(mine),
		Stats:              stats,
		ReadingLevel:       readingLevel(stats),
		UserTypes:          a.rules.Apply(stats, night, morning),
		GeneratedAt:        time.Now(),
	}

	a.cacheSet(ctx, userID, p)
	return p, nil
}

// SimilarUsers 基于兴趣标签的余弦相似度查找相似用户：
// 相似度只在标签交集上累加点积，无交集视为 0 并被过滤。
// 每次调用会为所有候选用户重算画像，频繁查询的调用方应启用 WithCache。
func (a *Analyzer) SimilarUsers(ctx context.Context, userID int64, topN int) ([]core.ScoredUser, error) {
	if topN <= 0 {
		topN = 5
	}
	target, err := a.AnalyzeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	targetTags := tagVector(target.InterestTags)
	if len(targetTags) == 0 {
		return nil, nil
	}

	all, err := a.source.GetInteractions(ctx)
	if err != nil {
		a.log.Error("load interactions failed", "err", err)
		return nil, nil
	}
	seen := make(map[int64]struct{})
	candidates := make([]int64, 0)
	for _, it := range all {
		if it.UserID == userID {
			continue
		}
		if _, ok := seen[it.UserID]; ok {
			continue
		}
		seen[it.UserID] = struct{}{}
		candidates = append(candidates, it.UserID)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	out := make([]core.ScoredUser, 0)
	for _, uid := range candidates {
		other, err := a.AnalyzeUser(ctx, uid)
		if err != nil {
			continue
		}
		otherTags := tagVector(other.InterestTags)
		if len(otherTags) == 0 {
			continue
		}
		sim, shared := tagCosine(targetTags, otherTags)
		if sim <= 0 {
			continue
		}
		if len(shared) > 5 {
			shared = shared[:5]
		}
		out = append(out, core.ScoredUser{UserID: uid, Similarity: round3(sim), SharedInterests: shared})
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
	return out, nil
}

func (a *Analyzer) loadArticles(ctx context.Context) map[int64]*core.Article {
	articles, err := a.source.GetArticles(ctx)
	if err != nil {
		a.log.Error("load articles failed, tag analysis degraded", "err", err)
		return map[int64]*core.Article{}
	}
	byID := make(map[int64]*core.Article, len(articles))
	for _, art := range articles {
		byID[art.ID] = art
	}
	return byID
}

// interestTags 兴趣标签：文章标签按行为权重累加，
// 标题关键词按 行为权重 × 相关度 × 0.5 额外累加（每篇最多 3 个关键词）。
// 取原始权重前 20，按批次最大值归一化到 (0,1]。
func (a *Analyzer) interestTags(interactions []*core.Interaction, articles map[int64]*core.Article) []core.InterestTag {
	raw := make(map[string]float64)
	for _, it := range interactions {
		art, ok := articles[it.ArticleID]
		if !ok {
			continue
		}
		w := a.weights[it.Action]
		if w == 0 {
			w = 1
		}
		for _, tag := range art.Tags {
			if tag != "" {
				raw[tag] += w
			}
		}
		for _, kw := range a.extractor.ExtractKeywords(art.Title, 3) {
			raw[kw.Text] += w * kw.Weight * 0.5
		}
	}
	if len(raw) == 0 {
		return []core.InterestTag{}
	}

	tags := make([]core.InterestTag, 0, len(raw))
	for tag, w := range raw {
		tags = append(tags, core.InterestTag{Tag: tag, RawScore: w})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].RawScore != tags[j].RawScore {
			return tags[i].RawScore > tags[j].RawScore
		}
		return tags[i].Tag < tags[j].Tag
	})
	if len(tags) > 20 {
		tags = tags[:20]
	}
	max := tags[0].RawScore
	for i := range tags {
		tags[i].Weight = round3(tags[i].RawScore / max)
		tags[i].RawScore = round2(tags[i].RawScore)
	}
	return tags
}

// categoryPreference 分类偏好：按交互计数排序并折算为百分比。
func (a *Analyzer) categoryPreference(interactions []*core.Interaction, articles map[int64]*core.Article) []core.CategoryStat {
	counts := make(map[string]int)
	total := 0
	for _, it := range interactions {
		art, ok := articles[it.ArticleID]
		if !ok || art.Category == "" {
			continue
		}
		counts[art.Category]++
		total++
	}
	if total == 0 {
		return []core.CategoryStat{}
	}
	out := make([]core.CategoryStat, 0, len(counts))
	for cat, count := range counts {
		name, ok := categoryNames[cat]
		if !ok {
			name = cat
		}
		out = append(out, core.CategoryStat{
			Category:   cat,
			Name:       name,
			Count:      count,
			Percentage: round1(float64(count) / float64(total) * 100),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// activityPattern 活跃时间模式：小时/星期直方图（省略零计数桶）与前 3 高峰。
func activityPattern(interactions []*core.Interaction) core.ActivityPattern {
	var hourCounts [24]int
	var dayCounts [7]int
	for _, it := range interactions {
		hourCounts[it.Timestamp.Hour()]++
		dayCounts[mondayFirst(it.Timestamp.Weekday())]++
	}

	p := core.ActivityPattern{
		Hourly:     []core.HourCount{},
		Daily:      []core.DayCount{},
		PeakHours:  []int{},
		ActiveDays: []string{},
	}
	for h, c := range hourCounts {
		if c > 0 {
			p.Hourly = append(p.Hourly, core.HourCount{Hour: h, Count: c})
		}
	}
	for d, c := range dayCounts {
		if c > 0 {
			p.Daily = append(p.Daily, core.DayCount{Day: d, Name: dayNames[d], Count: c})
		}
	}

	for _, hc := range topCounts(hourCounts[:], 3) {
		p.PeakHours = append(p.PeakHours, hc)
	}
	for _, d := range topCounts(dayCounts[:], 3) {
		p.ActiveDays = append(p.ActiveDays, dayNames[d])
	}
	return p
}

// topCounts 返回计数最高的前 n 个桶下标（计数相同按下标升序），零计数不入选。
func topCounts(counts []int, n int) []int {
	idx := make([]int, 0, len(counts))
	for i, c := range counts {
		if c > 0 {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(i, j int) bool {
		if counts[idx[i]] != counts[idx[j]] {
			return counts[idx[i]] > counts[idx[j]]
		}
		return idx[i] < idx[j]
	})
	if len(idx) > n {
		idx = idx[:n]
	}
	return idx
}

// mondayFirst 把 time.Weekday（周日为 0）转换为周一为 0 的下标。
func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// behaviorStats 行为统计。日均交互 = 总数 / max(1, 首末交互跨越天数)。
func (a *Analyzer) behaviorStats(interactions []*core.Interaction) core.BehaviorStats {
	stats := core.BehaviorStats{TotalInteractions: len(interactions)}
	unique := make(map[int64]struct{})
	var first, last time.Time
	for i, it := range interactions {
		switch it.Action {
		case core.ActionView:
			stats.ViewCount++
		case core.ActionLike:
			stats.LikeCount++
		case core.ActionFavorite:
			stats.FavoriteCount++
		case core.ActionComment:
			stats.CommentCount++
		}
		unique[it.ArticleID] = struct{}{}
		if i == 0 || it.Timestamp.Before(first) {
			first = it.Timestamp
		}
		if i == 0 || it.Timestamp.After(last) {
			last = it.Timestamp
		}
	}
	stats.UniqueArticles = len(unique)

	days := int(last.Sub(first).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	stats.AvgDailyInteractions = round2(float64(stats.TotalInteractions) / float64(days))
	return stats
}

// readingLevel 阅读深度：
// score = min(100, round(20·like率 + 40·favorite率 + 40·comment率 + min(总数/10, 20)))。
// 总数为 0 时各率短路为 0。
func readingLevel(stats core.BehaviorStats) core.ReadingLevel {
	total := stats.TotalInteractions
	if total == 0 {
		return core.ReadingLevel{Level: "novice", Score: 0, Description: noHistoryDesc}
	}
	likeRate := float64(stats.LikeCount) / float64(total)
	favoriteRate := float64(stats.FavoriteCount) / float64(total)
	commentRate := float64(stats.CommentCount) / float64(total)

	score := int(math.Round(likeRate*20 + favoriteRate*40 + commentRate*40 + math.Min(float64(total)/10, 20)))
	if score > 100 {
		score = 100
	}

	level := core.ReadingLevel{
		Score:        score,
		LikeRate:     round1(likeRate * 100),
		FavoriteRate: round1(favoriteRate * 100),
		CommentRate:  round1(commentRate * 100),
	}
	for _, l := range readingLevels {
		if score >= l.threshold {
			level.Level = l.level
			level.Description = l.desc
			break
		}
	}
	return level
}

// timeOfDayRatios 返回夜间（22-23 点与 0-6 点）与清晨（6-9 点）交互占比。
func timeOfDayRatios(interactions []*core.Interaction) (night, morning float64) {
	if len(interactions) == 0 {
		return 0, 0
	}
	var nightCount, morningCount int
	for _, it := range interactions {
		h := it.Timestamp.Hour()
		if h >= 22 || h <= 6 {
			nightCount++
		}
		if h >= 6 && h <= 9 {
			morningCount++
		}
	}
	total := float64(len(interactions))
	return float64(nightCount) / total, float64(morningCount) / total
}

func (a *Analyzer) emptyProfile(userID int64) *core.UserProfile {
	return &core.UserProfile{
		UserID:             userID,
		InterestTags:       []core.InterestTag{},
		CategoryPreference: []core.CategoryStat{},
		Activity: core.ActivityPattern{
			Hourly:     []core.HourCount{},
			Daily:      []core.DayCount{},
			PeakHours:  []int{},
			ActiveDays: []string{},
		},
		Stats:        core.BehaviorStats{},
		ReadingLevel: core.ReadingLevel{Level: "novice", Score: 0, Description: noHistoryDesc},
		UserTypes:    []string{"new user"},
		GeneratedAt:  time.Now(),
	}
}

func (a *Analyzer) cacheKey(userID int64) string {
	return fmt.Sprintf("newsrec:profile:%d", userID)
}

func (a *Analyzer) cacheGet(ctx context.Context, userID int64) *core.UserProfile {
	if a.cache == nil {
		return nil
	}
	data, err := a.cache.Get(ctx, a.cacheKey(userID))
	if err != nil {
		return nil
	}
	var p core.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	return &p
}

func (a *Analyzer) cacheSet(ctx context.Context, userID int64, p *core.UserProfile) {
	if a.cache == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, a.cacheKey(userID), data, a.cacheTTL); err != nil {
		a.log.Warn("cache profile failed", "user", userID, "err", err)
	}
}

// tagVector 把兴趣标签转成 tag -> 归一化权重 的向量。
func tagVector(tags []core.InterestTag) map[string]float64 {
	vec := make(map[string]float64, len(tags))
	for _, t := range tags {
		vec[t.Tag] = t.Weight
	}
	return vec
}

// tagCosine 计算限定在标签交集上的余弦相似度，并返回按目标权重排序的共同标签。
func tagCosine(target, other map[string]float64) (float64, []string) {
	var dot float64
	common := make([]string, 0)
	for tag, w := range target {
		if ow, ok := other[tag]; ok {
			dot += w * ow
			common = append(common, tag)
		}
	}
	if len(common) == 0 {
		return 0, nil
	}
	var normT, normO float64
	for _, w := range target {
		normT += w * w
	}
	for _, w := range other {
		normO += w * w
	}
	if normT == 0 || normO == 0 {
		return 0, nil
	}
	sort.Slice(common, func(i, j int) bool {
		if target[common[i]] != target[common[j]] {
			return target[common[i]] > target[common[j]]
		}
		return common[i] < common[j]
	})
	return dot / (math.Sqrt(normT) * math.Sqrt(normO)), common
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
