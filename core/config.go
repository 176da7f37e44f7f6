package core

import "time"

// EngineConfig 是推荐引擎的运行配置。
// 冷启动切分比例（0.7）与混合权重（0.4/0.4/0.2）是经验默认值而非推导结果，
// 因此保留为可配置项；权重不要求和为 1。
type EngineConfig struct {
	// ContentWeight / CFWeight / HotWeight 混合排序时三路信号的线性权重
	ContentWeight float64
	CFWeight      float64
	HotWeight     float64

	// MinInteractions 进入"老用户"混合推荐所需的最小历史条数
	MinInteractions int

	// TrainInterval 两次训练之间的最长间隔，超过则认为需要重训
	TrainInterval time.Duration

	// Factors 隐因子数（实际秩不超过 min(用户数, 文章数, Factors)）
	Factors int

	// HotSize 热门榜保留条数
	HotSize int

	// MaxFeatures 内容模型词表上限
	MaxFeatures int

	// ColdStartHotRatio 冷启动时热门候选所占比例，其余由标签匹配补足
	ColdStartHotRatio float64

	// HistoryLimit 读取用户历史时的条数上限
	HistoryLimit int

	// ActionWeights 各行为类型的固定权重
	ActionWeights map[ActionKind]float64
}

// DefaultEngineConfig 返回带全部默认值的配置。
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ContentWeight:     0.4,
		CFWeight:          0.4,
		HotWeight:         0.2,
		MinInteractions:   3,
		TrainInterval:     time.Hour,
		Factors:           50,
		HotSize:           100,
		MaxFeatures:       5000,
		ColdStartHotRatio: 0.7,
		HistoryLimit:      50,
		ActionWeights:     DefaultActionWeights(),
	}
}

// WithDefaults 用默认值补齐零值字段，返回补齐后的副本。
func (c EngineConfig) WithDefaults() EngineConfig {
	def := DefaultEngineConfig()
	if c.ContentWeight == 0 && c.CFWeight == 0 && c.HotWeight == 0 {
		c.ContentWeight = def.ContentWeight
		c.CFWeight = def.CFWeight
		c.HotWeight = def.HotWeight
	}
	if c.MinInteractions <= 0 {
		c.MinInteractions = def.MinInteractions
	}
	if c.TrainInterval <= 0 {
		c.TrainInterval = def.TrainInterval
	}
	if c.Factors <= 0 {
		c.Factors = def.Factors
	}
	if c.HotSize <= 0 {
		c.HotSize = def.HotSize
	}
	if c.MaxFeatures <= 0 {
		c.MaxFeatures = def.MaxFeatures
	}
	if c.ColdStartHotRatio <= 0 || c.ColdStartHotRatio > 1 {
		c.ColdStartHotRatio = def.ColdStartHotRatio
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = def.HistoryLimit
	}
	if len(c.ActionWeights) == 0 {
		c.ActionWeights = def.ActionWeights
	}
	return c
}
