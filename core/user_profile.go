package core

import "time"

// UserProfile 是用户画像的完整结果，由 profile.Analyzer 按需计算，不跨训练持久化。
//
// 维度：
//   - 兴趣标签：来自交互文章的标签 + 标题关键词（带相关度加权）
//   - 分类偏好：按文章分类的交互占比
//   - 活跃模式：小时/星期直方图与高峰时段
//   - 行为统计：交互总量、各行为计数、日均频率
//   - 阅读深度：0-100 评分与五档等级
//   - 用户类型：规则命中的标签集合（非单一标签）
type UserProfile struct {
	UserID             int64           `json:"user_id"`
	InterestTags       []InterestTag   `json:"interest_tags"`
	CategoryPreference []CategoryStat  `json:"category_preference"`
	Activity           ActivityPattern `json:"activity_pattern"`
	Stats              BehaviorStats   `json:"behavior_stats"`
	ReadingLevel       ReadingLevel    `json:"reading_level"`
	UserTypes          []string        `json:"user_type"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// InterestTag 兴趣标签。Weight 为按批次最大原始权重归一化后的值，范围 (0,1]，
// 最高权重的标签恒为 1.0；RawScore 保留归一化前的原始权重。
type InterestTag struct {
	Tag      string  `json:"tag"`
	Weight   float64 `json:"weight"`
	RawScore float64 `json:"raw_score"`
}

// CategoryStat 分类偏好条目。Name 为展示名，未知分类代码原样透传。
type CategoryStat struct {
	Category   string  `json:"category"`
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// HourCount 小时直方图条目（0-23），计数为零的小时不出现。
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// DayCount 星期直方图条目，Day 为 0-6（周一为 0），计数为零的天不出现。
type DayCount struct {
	Day   int    `json:"day"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ActivityPattern 活跃时间模式。
type ActivityPattern struct {
	Hourly     []HourCount `json:"hourly"`
	Daily      []DayCount  `json:"daily"`
	PeakHours  []int       `json:"peak_hours"`
	ActiveDays []string    `json:"active_days"`
}

// BehaviorStats 行为统计。AvgDailyInteractions = 总交互数 / max(1, 首末交互跨越天数)。
type BehaviorStats struct {
	TotalInteractions    int     `json:"total_interactions"`
	ViewCount            int     `json:"view_count"`
	LikeCount            int     `json:"like_count"`
	FavoriteCount        int     `json:"favorite_count"`
	CommentCount         int     `json:"comment_count"`
	UniqueArticles       int     `json:"unique_articles"`
	AvgDailyInteractions float64 `json:"avg_daily_interactions"`
}

// ReadingLevel 阅读深度。Score 限定在 [0,100]，Level 为五档之一：
// deep reader / active reader / regular reader / light reader / novice。
// 各 Rate 为对应行为占总交互的百分比（0-100）。
type ReadingLevel struct {
	Level        string  `json:"level"`
	Score        int     `json:"score"`
	Description  string  `json:"description"`
	LikeRate     float64 `json:"like_rate"`
	FavoriteRate float64 `json:"favorite_rate"`
	CommentRate  float64 `json:"comment_rate"`
}
