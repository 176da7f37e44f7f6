// Package hybrid 是推荐引擎的编排层：持有三路排序信号
// （内容相似 / 隐因子协同过滤 / 热门榜），负责周期性训练与请求时混合排序。
package hybrid

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/recall"
	"github.com/rushteam/newsrec/text"
)

// 推荐理由常量；混合命中多路时以 "+" 连接（如 "content similarity+collaborative filtering"）。
const (
	ReasonHot      = "hot"
	ReasonContent  = "content similarity"
	ReasonCF       = "collaborative filtering"
	reasonTagMatch = "tag match: " // 后接命中的标签列表
)

// snapshot 是一次训练产出的完整模型快照：内容向量、隐因子、热门榜
// 必须来自同一次训练。读路径只解引用当前快照，训练完成后原子替换。
type snapshot struct {
	content   *recall.ContentModel
	latent    *recall.LatentModel
	hot       *recall.HotList
	articles  []*core.Article
	trainedAt time.Time
}

// Request 是一次推荐请求。
type Request struct {
	UserID  int64   // 0 表示匿名用户
	TopN    int     // 返回条数，0 表示默认 10
	Exclude []int64 // 调用方要求排除的文章
	Shuffle bool    // 是否打乱后再截断（"换一批"语义，有意非确定）
}

// Blender 是混合推荐器：训练生命周期 + 请求时按用户分层混合排序。
//
// 并发模型：
//   - 读（Recommend / SimilarArticles）之间完全并发安全
//   - 训练产出以原子指针替换发布，读方看到的要么全旧要么全新
//   - "是否到期重训"的 check-then-train 竞态用 singleflight 收敛为单次训练，
//     并发请求共享同一次训练结果
type Blender struct {
	source core.DataSource
	prefs  core.PreferenceSource
	cfg    core.EngineConfig
	log    *slog.Logger
	tok    text.Tokenizer

	hotStore core.KeyValueStore // 可选：训练后把热门榜发布为有序集合
	hotKey   string

	snap      atomic.Pointer[snapshot]
	lastTrain atomic.Int64 // unix 纳秒；0 表示从未成功训练
	sf        singleflight.Group
}

// Option 配置 Blender 的可选项。
type Option func(*Blender)

// WithLogger 指定日志器；默认 slog.Default()。
func WithLogger(log *slog.Logger) Option {
	return func(b *Blender) { b.log = log }
}

// WithTokenizer 指定内容模型的分词器（中文部署传 text.GseTokenizer）。
func WithTokenizer(tok text.Tokenizer) Option {
	return func(b *Blender) { b.tok = tok }
}

// WithPreferenceSource 用独立的偏好来源（如 Feast 特征库）承接冷启动偏好查询；
// 默认从 DataSource 读取。
func WithPreferenceSource(prefs core.PreferenceSource) Option {
	return func(b *Blender) { b.prefs = prefs }
}

// WithHotStore 训练后把热门榜发布到有序集合（生产常用 Redis），
// 供外围服务直接 ZRevRange 读取。key 为空时默认 "newsrec:hot"。
func WithHotStore(kv core.KeyValueStore, key string) Option {
	return func(b *Blender) {
		b.hotStore = kv
		b.hotKey = key
	}
}

// NewBlender 创建混合推荐器。cfg 的零值字段会用默认值补齐。
func NewBlender(source core.DataSource, cfg core.EngineConfig, opts ...Option) *Blender {
	b := &Blender{
		source: source,
		cfg:    cfg.WithDefaults(),
		hotKey: "newsrec:hot",
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = slog.Default()
	}
	if b.prefs == nil {
		b.prefs = source
	}
	return b
}

// Ready 返回引擎是否已有可服务的快照。
func (b *Blender) Ready() bool {
	return b.snap.Load() != nil
}

// TrainedAt 返回最近一次成功训练的时间；从未训练时为零值。
func (b *Blender) TrainedAt() time.Time {
	if ns := b.lastTrain.Load(); ns > 0 {
		return time.Unix(0, ns)
	}
	return time.Time{}
}

// Train 执行一次完整训练：加载数据、重建三个模型、原子替换快照。
// 训练是幂等的全量重建，不做增量修改。并发调用被收敛为一次训练。
// 失败时旧快照保持可服务，时间戳不推进，下次到期检查自动重试。
func (b *Blender) Train(ctx context.Context) error {
	_, err, _ := b.sf.Do("train", func() (interface{}, error) {
		return nil, b.doTrain(ctx)
	})
	return err
}

func (b *Blender) doTrain(ctx context.Context) error {
	start := time.Now()

	articles, err := b.source.GetArticles(ctx)
	if err != nil {
		b.log.Error("load articles failed, keeping previous snapshot", "err", err)
		return fmt.Errorf("hybrid: load articles: %w", err)
	}
	if len(articles) == 0 {
		b.log.Warn("no articles, skipping training")
		return nil
	}

	content := &recall.ContentModel{MaxFeatures: b.cfg.MaxFeatures, Tokenizer: b.tok}
	content.Fit(articles)

	// 交互数据缺失时只跳过协同过滤这一路，不中断整个训练
	latent := &recall.LatentModel{Factors: b.cfg.Factors}
	interactions, err := b.source.GetInteractions(ctx)
	if err != nil {
		b.log.Error("load interactions failed, collaborative arm disabled", "err", err)
	} else if len(interactions) > 0 {
		latent.Fit(b.fillWeights(interactions))
	}

	now := time.Now()
	snap := &snapshot{
		content:   content,
		latent:    latent,
		hot:       recall.ComputeHotList(articles, b.cfg.HotSize, now),
		articles:  articles,
		trainedAt: now,
	}
	b.snap.Store(snap)
	b.lastTrain.Store(now.UnixNano())

	b.publishHot(ctx, snap.hot)

	b.log.Info("training finished",
		"articles", len(articles),
		"interactions", len(interactions),
		"took", time.Since(start))
	return nil
}

// fillWeights 用配置的行为权重补齐未携带权重的记录。
// 数据源可能跨调用复用同一批记录，补齐时复制而不回写原记录。
func (b *Blender) fillWeights(interactions []*core.Interaction) []*core.Interaction {
	out := make([]*core.Interaction, len(interactions))
	for i, it := range interactions {
		if it.Weight == 0 {
			filled := *it
			filled.Weight = b.cfg.ActionWeights[it.Action]
			out[i] = &filled
		} else {
			out[i] = it
		}
	}
	return out
}

// publishHot 把热门榜镜像到有序集合，外围服务可直接按分数读取。
func (b *Blender) publishHot(ctx context.Context, hot *recall.HotList) {
	if b.hotStore == nil || hot.Len() == 0 {
		return
	}
	if err := b.hotStore.Delete(ctx, b.hotKey); err != nil {
		b.log.Warn("reset hot ranking failed", "key", b.hotKey, "err", err)
	}
	for _, e := range hot.Entries() {
		if err := b.hotStore.ZAdd(ctx, b.hotKey, e.Score, strconv.FormatInt(e.ArticleID, 10)); err != nil {
			b.log.Warn("publish hot ranking failed", "key", b.hotKey, "err", err)
			return
		}
	}
}

// StartAutoTrain 启动后台周期训练：请求路径只读快照，重训不再阻塞请求。
// ctx 取消时停止。
func (b *Blender) StartAutoTrain(ctx context.Context) {
	go func() {
		if err := b.Train(ctx); err != nil {
			b.log.Error("auto train failed", "err", err)
		}
		ticker := time.NewTicker(b.cfg.TrainInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := b.Train(ctx); err != nil {
					b.log.Error("auto train failed", "err", err)
				}
			}
		}
	}()
}

func (b *Blender) trainDue() bool {
	last := b.lastTrain.Load()
	return last == 0 || time.Since(time.Unix(0, last)) > b.cfg.TrainInterval
}

// Recommend 是混合推荐主入口，按用户分层选择策略：
//
//  1. 匿名用户：热门榜
//  2. 冷启动（历史 < MinInteractions）：70% 热门 + 30% 偏好标签匹配
//  3. 老用户：内容相似 / 协同过滤 / 热门 三路各取 2×TopN 候选，
//     分路做 min-max 归一化后按权重线性融合
//
// 各分支候选按 2×TopN 超采样，可选打乱后截断到 TopN。
// 到期时在请求路径内同步重训（沿用参考行为，延迟风险见 StartAutoTrain）。
func (b *Blender) Recommend(ctx context.Context, req Request) ([]core.ScoredArticle, error) {
	if b.trainDue() {
		if err := b.Train(ctx); err != nil {
			b.log.Error("inline retrain failed, serving stale snapshot", "err", err)
		}
	}
	snap := b.snap.Load()
	if snap == nil {
		return nil, core.ErrEngineNotReady
	}

	topN := req.TopN
	if topN <= 0 {
		topN = 10
	}
	oversample := topN * 2

	var results []core.ScoredArticle
	switch {
	case req.UserID == 0:
		results = b.hotCandidates(snap, oversample, toSet(req.Exclude))
	default:
		history, err := b.source.GetUserHistory(ctx, req.UserID, b.cfg.HistoryLimit)
		if err != nil {
			b.log.Error("load user history failed, falling back to cold start", "user", req.UserID, "err", err)
			history = nil
		}
		if len(history) < b.cfg.MinInteractions {
			results = b.coldStart(ctx, snap, req.UserID, oversample, req.Exclude)
		} else {
			results = b.established(ctx, snap, req.UserID, history, oversample, req.Exclude)
		}
	}

	if req.Shuffle && len(results) > topN {
		rand.Shuffle(len(results), func(i, j int) {
			results[i], results[j] = results[j], results[i]
		})
	}
	if len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

// SimilarArticles 返回与指定文章内容最相似的文章，直接委托内容模型。
func (b *Blender) SimilarArticles(_ context.Context, articleID int64, topN int) ([]core.ScoredArticle, error) {
	snap := b.snap.Load()
	if snap == nil {
		return nil, core.ErrEngineNotReady
	}
	out := snap.content.SimilarArticles(articleID, topN)
	for i := range out {
		out[i].Reason = ReasonContent
	}
	return out, nil
}

// hotCandidates 从热门榜取候选，理由固定为 "hot"。
func (b *Blender) hotCandidates(snap *snapshot, topN int, exclude map[int64]struct{}) []core.ScoredArticle {
	entries := snap.hot.Take(topN, exclude)
	out := make([]core.ScoredArticle, 0, len(entries))
	for _, e := range entries {
		out = append(out, core.ScoredArticle{ArticleID: e.ArticleID, Score: e.Score, Reason: ReasonHot})
	}
	return out
}

// coldStart 新用户推荐：按配置比例取热门，余量用偏好标签与文章标签的
// 重合数补足；没有已知偏好标签时只有热门一路。
func (b *Blender) coldStart(ctx context.Context, snap *snapshot, userID int64, topN int, exclude []int64) []core.ScoredArticle {
	hotCount := int(float64(topN) * b.cfg.ColdStartHotRatio)
	results := b.hotCandidates(snap, hotCount, toSet(exclude))

	used := toSet(exclude)
	for _, r := range results {
		used[r.ArticleID] = struct{}{}
	}

	prefs, err := b.prefs.GetUserPreferences(ctx, userID)
	if err != nil {
		b.log.Warn("load user preferences failed, hot-only cold start", "user", userID, "err", err)
		return results
	}
	if prefs == nil || len(prefs.LikedTags) == 0 {
		return results
	}
	results = append(results, b.matchByTags(snap, prefs.LikedTags, topN-hotCount, used)...)
	if len(results) > topN {
		results = results[:topN]
	}
	return results
}

// matchByTags 标签匹配一路：分数 = 偏好标签与文章标签的重合数，
// 零重合的文章不进入候选；理由携带命中的标签列表。
func (b *Blender) matchByTags(snap *snapshot, likedTags []string, topN int, exclude map[int64]struct{}) []core.ScoredArticle {
	if topN <= 0 {
		return nil
	}
	liked := make(map[string]struct{}, len(likedTags))
	for _, t := range likedTags {
		liked[t] = struct{}{}
	}

	out := make([]core.ScoredArticle, 0)
	for _, a := range snap.articles {
		if _, skip := exclude[a.ID]; skip {
			continue
		}
		var matched []string
		for _, t := range a.Tags {
			if _, ok := liked[t]; ok {
				matched = append(matched, t)
			}
		}
		if len(matched) == 0 {
			continue
		}
		out = append(out, core.ScoredArticle{
			ArticleID: a.ID,
			Score:     float64(len(matched)),
			Reason:    reasonTagMatch + strings.Join(matched, ", "),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ArticleID < out[j].ArticleID
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// established 老用户混合推荐：三路并发取候选，分路归一化后线性融合。
// 理由按 内容 → 协同过滤 → 热门 的顺序记录，命中多路时拼接。
func (b *Blender) established(ctx context.Context, snap *snapshot, userID int64, history []int64, topN int, exclude []int64) []core.ScoredArticle {
	allExclude := make([]int64, 0, len(history)+len(exclude))
	allExclude = append(allExclude, history...)
	allExclude = append(allExclude, exclude...)
	excludeSet := toSet(allExclude)

	var contentRecs, cfRecs, hotRecs []core.ScoredArticle
	eg, _ := errgroup.WithContext(ctx)
	eg.Go(func() error {
		contentRecs = snap.content.RecommendForHistory(history, topN, allExclude)
		return nil
	})
	eg.Go(func() error {
		cfRecs = snap.latent.RecommendForUser(userID, topN, allExclude)
		return nil
	})
	eg.Go(func() error {
		hotRecs = b.hotCandidates(snap, topN, excludeSet)
		return nil
	})
	_ = eg.Wait()

	merged := make(map[int64]float64)
	reasons := make(map[int64]string)
	for id, s := range minMaxNormalize(contentRecs) {
		merged[id] += s * b.cfg.ContentWeight
		reasons[id] = ReasonContent
	}
	for id, s := range minMaxNormalize(cfRecs) {
		merged[id] += s * b.cfg.CFWeight
		if r, ok := reasons[id]; ok {
			reasons[id] = r + "+" + ReasonCF
		} else {
			reasons[id] = ReasonCF
		}
	}
	for id, s := range minMaxNormalize(hotRecs) {
		merged[id] += s * b.cfg.HotWeight
		if _, ok := reasons[id]; !ok {
			reasons[id] = ReasonHot
		}
	}

	if len(merged) == 0 {
		// 三路全空（极端稀疏数据），退回热门
		return b.hotCandidates(snap, topN, excludeSet)
	}

	out := make([]core.ScoredArticle, 0, len(merged))
	for id, score := range merged {
		out = append(out, core.ScoredArticle{ArticleID: id, Score: score, Reason: reasons[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ArticleID < out[j].ArticleID
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
