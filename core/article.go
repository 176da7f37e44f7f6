package core

import "time"

// ActionKind 用户行为类型。
type ActionKind string

const (
	ActionView     ActionKind = "view"
	ActionLike     ActionKind = "like"
	ActionFavorite ActionKind = "favorite"
	ActionComment  ActionKind = "comment"
)

// DefaultActionWeights 各行为的固定权重，由配置决定，不从交互记录本身推导。
// view=1 / like=3 / comment=4 / favorite=5。
func DefaultActionWeights() map[ActionKind]float64 {
	return map[ActionKind]float64{
		ActionView:     1,
		ActionLike:     3,
		ActionComment:  4,
		ActionFavorite: 5,
	}
}

// Article 是一篇文章在一次训练内的不可变快照。
// 计数器（浏览/点赞/评论）用于热门排行，文本字段用于内容相似度。
type Article struct {
	ID           int64
	Title        string
	Summary      string
	Tags         []string
	Category     string
	ViewCount    int64
	LikeCount    int64
	CommentCount int64
	CreatedAt    time.Time
	Approved     bool
}

// Interaction 是一条用户-文章交互记录。
// 同一 (user, article) 允许多条记录，聚合时按权重求和。
type Interaction struct {
	UserID    int64
	ArticleID int64
	Action    ActionKind
	Weight    float64
	Timestamp time.Time
}

// ScoredArticle 是排序后的推荐条目：文章、分数、可解释的推荐理由。
type ScoredArticle struct {
	ArticleID int64   `json:"article_id"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason"`
}

// ScoredUser 是相似用户条目；SharedInterests 为共同兴趣标签示例（最多 5 个）。
type ScoredUser struct {
	UserID          int64    `json:"user_id"`
	Similarity      float64  `json:"similarity"`
	SharedInterests []string `json:"shared_interests,omitempty"`
}
