package core

import "context"

// UserPreferences 冷启动用的声明式偏好：用户点赞过的标签与偏好的分类。
type UserPreferences struct {
	LikedTags           []string `json:"liked_tags"`
	PreferredCategories []string `json:"preferred_categories"`
}

// DataSource 是引擎消费的数据读取契约，由外部协作方实现
// （平台数据库、内存实现、特征库等）。引擎不关心其背后的存储形态。
type DataSource interface {
	// GetArticles 返回全部可见/已审核文章，每篇带聚合后的标签列表
	GetArticles(ctx context.Context) ([]*Article, error)

	// GetInteractions 返回全量用户交互记录（like/favorite/comment，
	// view 若有埋点则权重为 1，不保证存在）
	GetInteractions(ctx context.Context) ([]*Interaction, error)

	// GetUserHistory 返回用户最近交互过的文章 ID，最新在前
	GetUserHistory(ctx context.Context, userID int64, limit int) ([]int64, error)

	// GetUserPreferences 返回用户的声明式偏好，仅用于冷启动标签匹配
	GetUserPreferences(ctx context.Context, userID int64) (*UserPreferences, error)
}

// PreferenceSource 是 DataSource 中偏好查询的独立切面，
// 便于用特征库（如 Feast）单独承接冷启动偏好。
type PreferenceSource interface {
	GetUserPreferences(ctx context.Context, userID int64) (*UserPreferences, error)
}
