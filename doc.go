// Package newsrec 是一个文章推荐与用户画像引擎（News Recommender）。
//
// 设计要点：
// - Snapshot-first: 训练产出（内容向量/隐因子/热门榜）整体构建、原子替换，读路径无锁
// - 分层策略: 匿名用户走热门，冷启动用户走热门+标签匹配，老用户走三路混合排序
// - 数据源可插拔: 引擎只依赖 core.DataSource 接口，画像/偏好可由特征库单独承接
package newsrec

import (
	"github.com/rushteam/newsrec/core"
	"github.com/rushteam/newsrec/hybrid"
	"github.com/rushteam/newsrec/profile"
)

// 轻量 facade：便于用户直接 import "newsrec" 使用核心抽象。
type Engine = hybrid.Blender
type Request = hybrid.Request
type Analyzer = profile.Analyzer

type Article = core.Article
type Interaction = core.Interaction
type ScoredArticle = core.ScoredArticle
type UserProfile = core.UserProfile
type EngineConfig = core.EngineConfig

var (
	NewEngine   = hybrid.NewBlender
	NewAnalyzer = profile.NewAnalyzer
)
