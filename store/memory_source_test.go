package store

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/newsrec/core"
)

func TestMemorySource_GetArticlesApprovedOnly(t *testing.T) {
	s := NewMemorySource()
	s.AddArticle(&core.Article{ID: 1, Approved: true})
	s.AddArticle(&core.Article{ID: 2, Approved: false})
	s.AddArticle(&core.Article{ID: 3, Approved: true})

	got, err := s.GetArticles(context.Background())
	if err != nil {
		t.Fatalf("get articles: %v", err)
	}
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("approved articles = %v, want [1 3]", got)
	}
}

func TestMemorySource_DefaultWeights(t *testing.T) {
	s := NewMemorySource()
	s.AddInteraction(&core.Interaction{UserID: 1, ArticleID: 10, Action: core.ActionFavorite})
	s.AddInteraction(&core.Interaction{UserID: 1, ArticleID: 11, Action: core.ActionView, Weight: 2.5})

	got, _ := s.GetInteractions(context.Background())
	if got[0].Weight != 5 {
		t.Errorf("favorite weight = %v, want 5", got[0].Weight)
	}
	// 显式权重不被覆盖
	if got[1].Weight != 2.5 {
		t.Errorf("explicit weight = %v, want 2.5", got[1].Weight)
	}
	if got[0].Timestamp.IsZero() {
		t.Error("zero timestamp should be filled")
	}
}

func TestMemorySource_GetUserHistory(t *testing.T) {
	s := NewMemorySource()
	now := time.Now()
	for _, it := range []*core.Interaction{
		{UserID: 1, ArticleID: 10, Action: core.ActionView, Timestamp: now.Add(-3 * time.Hour)},
		{UserID: 1, ArticleID: 11, Action: core.ActionView, Timestamp: now.Add(-2 * time.Hour)},
		// 同一文章的更晚交互决定其排序位置
		{UserID: 1, ArticleID: 10, Action: core.ActionLike, Timestamp: now.Add(-1 * time.Hour)},
		{UserID: 2, ArticleID: 12, Action: core.ActionView, Timestamp: now},
	} {
		s.AddInteraction(it)
	}

	got, err := s.GetUserHistory(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(got) != 2 || got[0] != 10 || got[1] != 11 {
		t.Errorf("history = %v, want [10 11]", got)
	}

	// limit 截断
	got, _ = s.GetUserHistory(context.Background(), 1, 1)
	if len(got) != 1 || got[0] != 10 {
		t.Errorf("limited history = %v, want [10]", got)
	}
}

func TestMemorySource_GetUserPreferences(t *testing.T) {
	s := NewMemorySource()
	s.AddArticle(&core.Article{ID: 1, Tags: []string{"sports", "football"}, Category: "CAMPUS", Approved: true})
	s.AddInteraction(&core.Interaction{UserID: 1, ArticleID: 1, Action: core.ActionLike})
	s.AddInteraction(&core.Interaction{UserID: 2, ArticleID: 1, Action: core.ActionView})

	// 未显式设置：从点赞推导
	p, err := s.GetUserPreferences(context.Background(), 1)
	if err != nil {
		t.Fatalf("get preferences: %v", err)
	}
	if len(p.LikedTags) != 2 || p.LikedTags[0] != "football" || p.LikedTags[1] != "sports" {
		t.Errorf("derived tags = %v, want [football sports]", p.LikedTags)
	}
	if len(p.PreferredCategories) != 1 || p.PreferredCategories[0] != "CAMPUS" {
		t.Errorf("derived categories = %v, want [CAMPUS]", p.PreferredCategories)
	}

	// 仅浏览不推导偏好
	p, _ = s.GetUserPreferences(context.Background(), 2)
	if len(p.LikedTags) != 0 {
		t.Errorf("view-only user should derive no tags, got %v", p.LikedTags)
	}

	// 显式设置优先
	s.SetUserPreferences(1, &core.UserPreferences{LikedTags: []string{"tech"}})
	p, _ = s.GetUserPreferences(context.Background(), 1)
	if len(p.LikedTags) != 1 || p.LikedTags[0] != "tech" {
		t.Errorf("explicit preferences = %v, want [tech]", p.LikedTags)
	}
}
