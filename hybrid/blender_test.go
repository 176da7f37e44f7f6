package hybrid

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/store"
)

// failingSource 模拟数据源全面故障。
type failingSource struct{}

func (failingSource) GetArticles(context.Context) ([]*core.Article, error) {
	return nil, errors.New("db down")
}
func (failingSource) GetInteractions(context.Context) ([]*core.Interaction, error) {
	return nil, errors.New("db down")
}
func (failingSource) GetUserHistory(context.Context, int64, int) ([]int64, error) {
	return nil, errors.New("db down")
}
func (failingSource) GetUserPreferences(context.Context, int64) (*core.UserPreferences, error) {
	return nil, errors.New("db down")
}

func seededSource(now time.Time) *store.MemorySource {
	s := store.NewMemorySource()
	articles := []*core.Article{
		{ID: 1, Title: "campus football final", Summary: "football team wins the final", Tags: []string{"sports", "football"}, Category: "CAMPUS", ViewCount: 900, LikeCount: 50, CommentCount: 20, CreatedAt: now.AddDate(0, 0, -1), Approved: true},
		{ID: 2, Title: "football training camp", Summary: "football season starts", Tags: []string{"sports", "football"}, Category: "CAMPUS", ViewCount: 400, LikeCount: 30, CommentCount: 5, CreatedAt: now.AddDate(0, 0, -2), Approved: true},
		{ID: 3, Title: "deep learning lecture", Summary: "neural networks explained", Tags: []string{"tech", "ai"}, Category: "COLLEGE", ViewCount: 300, LikeCount: 20, CommentCount: 8, CreatedAt: now.AddDate(0, 0, -1), Approved: true},
		{ID: 4, Title: "library opening hours", Summary: "new schedule announced", Tags: []string{"campus", "news"}, Category: "OFFICIAL", ViewCount: 200, LikeCount: 5, CommentCount: 1, CreatedAt: now.AddDate(0, 0, -3), Approved: true},
		{ID: 5, Title: "basketball league semifinal", Summary: "basketball teams compete", Tags: []string{"sports", "basketball"}, Category: "CAMPUS", ViewCount: 600, LikeCount: 40, CommentCount: 15, CreatedAt: now.AddDate(0, 0, -1), Approved: true},
		{ID: 6, Title: "robotics club recruiting", Summary: "join the robotics club", Tags: []string{"tech", "club"}, Category: "COLLEGE", ViewCount: 100, LikeCount: 8, CommentCount: 2, CreatedAt: now.AddDate(0, 0, -2), Approved: true},
	}
	for _, a := range articles {
		s.AddArticle(a)
	}
	for _, it := range []*core.Interaction{
		{UserID: 100, ArticleID: 1, Action: core.ActionLike, Timestamp: now.Add(-3 * time.Hour)},
		{UserID: 100, ArticleID: 2, Action: core.ActionView, Timestamp: now.Add(-2 * time.Hour)},
		{UserID: 100, ArticleID: 5, Action: core.ActionFavorite, Timestamp: now.Add(-1 * time.Hour)},
		{UserID: 200, ArticleID: 3, Action: core.ActionLike, Timestamp: now.Add(-5 * time.Hour)},
		{UserID: 300, ArticleID: 1, Action: core.ActionView, Timestamp: now.Add(-4 * time.Hour)},
	} {
		s.AddInteraction(it)
	}
	return s
}

func TestBlender_NotReady(t *testing.T) {
	b := NewBlender(failingSource{}, core.EngineConfig{})
	_, err := b.Recommend(context.Background(), Request{UserID: 1, TopN: 5})
	if !core.IsNotReady(err) {
		t.Fatalf("expected not-ready error, got %v", err)
	}
	_, err = b.SimilarArticles(context.Background(), 1, 5)
	if !core.IsNotReady(err) {
		t.Fatalf("expected not-ready error, got %v", err)
	}
}

func TestBlender_AnonymousGetsHot(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	b := NewBlender(seededSource(now), core.EngineConfig{})
	if err := b.Train(ctx); err != nil {
		t.Fatalf("train: %v", err)
	}
	if !b.Ready() {
		t.Fatal("engine should be ready after training")
	}

	got, err := b.Recommend(ctx, Request{TopN: 3})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	for _, r := range got {
		if r.Reason != ReasonHot {
			t.Errorf("anonymous reason = %q, want %q", r.Reason, ReasonHot)
		}
	}
	// 热门榜降序
	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Errorf("hot results not descending at %d", i)
		}
	}
}

func TestBlender_ColdStartMixesHotAndTags(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	source := seededSource(now)
	// 用户 500 无历史，但声明了偏好标签
	source.SetUserPreferences(500, &core.UserPreferences{LikedTags: []string{"sports"}})

	// 热门榜只保留 2 条，保证剩余名额由标签匹配补足
	b := NewBlender(source, core.EngineConfig{HotSize: 2})
	if err := b.Train(ctx); err != nil {
		t.Fatalf("train: %v", err)
	}

	got, err := b.Recommend(ctx, Request{UserID: 500, TopN: 10})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("cold start should return candidates")
	}

	var hot, tagged int
	for _, r := range got {
		switch {
		case r.Reason == ReasonHot:
			hot++
		case strings.HasPrefix(r.Reason, "tag match: "):
			tagged++
			if !strings.Contains(r.Reason, "sports") {
				t.Errorf("tag match reason should carry matched tags, got %q", r.Reason)
			}
		default:
			t.Errorf("unexpected cold-start reason %q", r.Reason)
		}
	}
	if hot == 0 {
		t.Error("cold start should include hot candidates")
	}
	if tagged == 0 {
		t.Error("cold start should include tag-matched candidates")
	}
}

func TestBlender_ColdStartWithoutPreferences(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	source := seededSource(now)
	source.SetUserPreferences(600, &core.UserPreferences{})

	b := NewBlender(source, core.EngineConfig{})
	if err := b.Train(ctx); err != nil {
		t.Fatalf("train: %v", err)
	}

	got, err := b.Recommend(ctx, Request{UserID: 600, TopN: 4})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	for _, r := range got {
		if r.Reason != ReasonHot {
			t.Errorf("without preferences reason = %q, want %q", r.Reason, ReasonHot)
		}
	}
}

func TestBlender_EstablishedUser(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	b := NewBlender(seededSource(now), core.EngineConfig{MinInteractions: 3})
	if err := b.Train(ctx); err != nil {
		t.Fatalf("train: %v", err)
	}

	// 用户 100 有 3 条历史（文章 1、2、5），走混合排序
	got, err := b.Recommend(ctx, Request{UserID: 100, TopN: 5})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("established user should get recommendations")
	}
	history := map[int64]struct{}{1: {}, 2: {}, 5: {}}
	for _, r := range got {
		if _, seen := history[r.ArticleID]; seen {
			t.Errorf("history article %d should be excluded", r.ArticleID)
		}
		if r.Reason == "" {
			t.Errorf("article %d has empty reason", r.ArticleID)
		}
	}
	// 融合分降序
	for i := 1; i < len(got); i++ {
		if got[i-1].Score < got[i].Score {
			t.Errorf("results not descending at %d", i)
		}
	}
}

func TestBlender_ExcludeRespected(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	b := NewBlender(seededSource(now), core.EngineConfig{})
	if err := b.Train(ctx); err != nil {
		t.Fatalf("train: %v", err)
	}

	got, err := b.Recommend(ctx, Request{TopN: 10, Exclude: []int64{1, 5}})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	for _, r := range got {
		if r.ArticleID == 1 || r.ArticleID == 5 {
			t.Errorf("excluded article %d returned", r.ArticleID)
		}
	}
}

func TestBlender_ShuffleKeepsTopNSize(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	b := NewBlender(seededSource(now), core.EngineConfig{})
	if err := b.Train(ctx); err != nil {
		t.Fatalf("train: %v", err)
	}

	got, err := b.Recommend(ctx, Request{TopN: 2, Shuffle: true})
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results after shuffle, got %d", len(got))
	}
}

func TestBlender_SimilarArticles(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	b := NewBlender(seededSource(now), core.EngineConfig{})
	if err := b.Train(ctx); err != nil {
		t.Fatalf("train: %v", err)
	}

	got, err := b.SimilarArticles(ctx, 1, 2)
	if err != nil {
		t.Fatalf("similar: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 similar, got %d", len(got))
	}
	// 同为足球主题的文章 2 应排第一
	if got[0].ArticleID != 2 {
		t.Errorf("most similar = %d, want 2", got[0].ArticleID)
	}
	for _, r := range got {
		if r.Reason != ReasonContent {
			t.Errorf("reason = %q, want %q", r.Reason, ReasonContent)
		}
	}
}

func TestBlender_PublishesHotRanking(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	kv := store.NewMemoryStore()
	defer kv.Close()

	b := NewBlender(seededSource(now), core.EngineConfig{}, WithHotStore(kv, "test:hot"))
	if err := b.Train(ctx); err != nil {
		t.Fatalf("train: %v", err)
	}

	members, err := kv.ZRevRangeWithScores(ctx, "test:hot", 0, -1)
	if err != nil {
		t.Fatalf("zrevrange: %v", err)
	}
	if len(members) != 6 {
		t.Fatalf("expected 6 published entries, got %d", len(members))
	}
	// 文章 1 互动最多且最新，应居榜首
	if members[0].Member != "1" {
		t.Errorf("top member = %q, want %q", members[0].Member, "1")
	}
}

func TestBlender_TrainFailureKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	source := seededSource(now)
	b := NewBlender(source, core.EngineConfig{})
	if err := b.Train(ctx); err != nil {
		t.Fatalf("train: %v", err)
	}
	trainedAt := b.TrainedAt()

	// 换成故障源重训：失败后旧快照仍可服务
	b.source = failingSource{}
	if err := b.Train(ctx); err == nil {
		t.Fatal("expected training error")
	}
	if !b.Ready() {
		t.Fatal("previous snapshot should survive a failed retrain")
	}
	if !b.TrainedAt().Equal(trainedAt) {
		t.Error("failed training should not advance the trained timestamp")
	}
}

// sharedRecordSource 模拟跨调用复用同一批交互记录的数据源。
type sharedRecordSource struct {
	articles     []*core.Article
	interactions []*core.Interaction
}

func (s *sharedRecordSource) GetArticles(context.Context) ([]*core.Article, error) {
	return s.articles, nil
}
func (s *sharedRecordSource) GetInteractions(context.Context) ([]*core.Interaction, error) {
	return s.interactions, nil
}
func (s *sharedRecordSource) GetUserHistory(context.Context, int64, int) ([]int64, error) {
	return nil, nil
}
func (s *sharedRecordSource) GetUserPreferences(context.Context, int64) (*core.UserPreferences, error) {
	return &core.UserPreferences{}, nil
}

func TestBlender_TrainDoesNotMutateSourceRecords(t *testing.T) {
	now := time.Now()
	source := &sharedRecordSource{
		articles: []*core.Article{
			{ID: 1, Title: "campus news", Tags: []string{"campus"}, CreatedAt: now, Approved: true},
		},
		interactions: []*core.Interaction{
			{UserID: 1, ArticleID: 1, Action: core.ActionLike, Timestamp: now},
		},
	}

	b := NewBlender(source, core.EngineConfig{})
	if err := b.Train(context.Background()); err != nil {
		t.Fatalf("train: %v", err)
	}

	// 补权重只作用于训练用的副本，数据源持有的记录保持原样
	if got := source.interactions[0].Weight; got != 0 {
		t.Errorf("source record weight = %v, want 0 (untouched)", got)
	}
}

func TestMinMaxNormalize(t *testing.T) {
	tests := []struct {
		name  string
		items []core.ScoredArticle
		want  map[int64]float64
	}{
		{"empty", nil, map[int64]float64{}},
		{
			"single value maps to one",
			[]core.ScoredArticle{{ArticleID: 1, Score: 42}},
			map[int64]float64{1: 1.0},
		},
		{
			"equal values map to one",
			[]core.ScoredArticle{{ArticleID: 1, Score: 5}, {ArticleID: 2, Score: 5}},
			map[int64]float64{1: 1.0, 2: 1.0},
		},
		{
			"linear mapping",
			[]core.ScoredArticle{{ArticleID: 1, Score: 10}, {ArticleID: 2, Score: 20}, {ArticleID: 3, Score: 15}},
			map[int64]float64{1: 0, 2: 1.0, 3: 0.5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := minMaxNormalize(tt.items)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for id, w := range tt.want {
				if got[id] != w {
					t.Errorf("normalized[%d] = %v, want %v", id, got[id], w)
				}
			}
		})
	}
}
