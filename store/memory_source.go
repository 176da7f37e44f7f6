package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/newsrec/core"
)

// MemorySource 是内存实现的 core.DataSource，用于测试与示例。
// 文章与交互按写入顺序保存，读取时快照复制，并发安全。
type MemorySource struct {
	mu           sync.RWMutex
	articles     []*core.Article
	interactions []*core.Interaction
	prefs        map[int64]*core.UserPreferences
	weights      map[core.ActionKind]float64
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		prefs:   make(map[int64]*core.UserPreferences),
		weights: core.DefaultActionWeights(),
	}
}

var _ core.DataSource = (*MemorySource)(nil)

// AddArticle 登记文章。Approved 由调用方控制，GetArticles 只返回已审核的。
func (s *MemorySource) AddArticle(a *core.Article) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles = append(s.articles, a)
}

// AddInteraction 登记交互；Weight 为 0 时按行为类型填默认权重，
// Timestamp 为零值时取当前时间。
func (s *MemorySource) AddInteraction(it *core.Interaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it.Weight == 0 {
		if w, ok := s.weights[it.Action]; ok {
			it.Weight = w
		} else {
			it.Weight = 1
		}
	}
	if it.Timestamp.IsZero() {
		it.Timestamp = time.Now()
	}
	s.interactions = append(s.interactions, it)
}

// SetUserPreferences 设置用户的声明式偏好；未设置时由点赞行为推导。
func (s *MemorySource) SetUserPreferences(userID int64, prefs *core.UserPreferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[userID] = prefs
}

func (s *MemorySource) GetArticles(ctx context.Context) ([]*core.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Article, 0, len(s.articles))
	for _, a := range s.articles {
		if a.Approved {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *MemorySource) GetInteractions(ctx context.Context) ([]*core.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Interaction, len(s.interactions))
	copy(out, s.interactions)
	return out, nil
}

// GetUserHistory 返回用户最近交互的文章 ID（最新在前，同一文章只保留最近一次）。
func (s *MemorySource) GetUserHistory(ctx context.Context, userID int64, limit int) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[int64]time.Time)
	for _, it := range s.interactions {
		if it.UserID != userID {
			continue
		}
		if ts, ok := latest[it.ArticleID]; !ok || it.Timestamp.After(ts) {
			latest[it.ArticleID] = it.Timestamp
		}
	}
	ids := make([]int64, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := latest[ids[i]], latest[ids[j]]
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return ids[i] < ids[j]
	})
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// GetUserPreferences 返回显式偏好；未设置时从点赞过的文章推导
// （标签与分类去重后升序排列）。
func (s *MemorySource) GetUserPreferences(ctx context.Context, userID int64) (*core.UserPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.prefs[userID]; ok {
		return p, nil
	}

	byID := make(map[int64]*core.Article, len(s.articles))
	for _, a := range s.articles {
		byID[a.ID] = a
	}
	tagSet := make(map[string]struct{})
	catSet := make(map[string]struct{})
	for _, it := range s.interactions {
		if it.UserID != userID || it.Action != core.ActionLike {
			continue
		}
		a, ok := byID[it.ArticleID]
		if !ok {
			continue
		}
		for _, tag := range a.Tags {
			if tag != "" {
				tagSet[tag] = struct{}{}
			}
		}
		if a.Category != "" {
			catSet[a.Category] = struct{}{}
		}
	}
	p := &core.UserPreferences{
		LikedTags:           make([]string, 0, len(tagSet)),
		PreferredCategories: make([]string, 0, len(catSet)),
	}
	for tag := range tagSet {
		p.LikedTags = append(p.LikedTags, tag)
	}
	for cat := range catSet {
		p.PreferredCategories = append(p.PreferredCategories, cat)
	}
	sort.Strings(p.LikedTags)
	sort.Strings(p.PreferredCategories)
	return p, nil
}
