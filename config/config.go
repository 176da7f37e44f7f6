// Package config 提供 YAML 配置加载：部署方用一个文件描述
// 引擎参数与外部依赖（Redis、Feast、日志）。
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/newsrec/core"
)

// Config 是完整的服务配置。所有字段都可省略，省略即默认值。
type Config struct {
	Engine EngineSection `yaml:"engine"`
	Redis  RedisSection  `yaml:"redis"`
	Feast  FeastSection  `yaml:"feast"`
	Log    LogSection    `yaml:"log"`
}

// Duration 是支持 "30m" / "1h" 写法的时长字段。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// EngineSection 对应 core.EngineConfig。
type EngineSection struct {
	ContentWeight     float64            `yaml:"content_weight"`
	CFWeight          float64            `yaml:"cf_weight"`
	HotWeight         float64            `yaml:"hot_weight"`
	MinInteractions   int                `yaml:"min_interactions"`
	TrainInterval     Duration           `yaml:"train_interval"`
	Factors           int                `yaml:"factors"`
	HotSize           int                `yaml:"hot_size"`
	MaxFeatures       int                `yaml:"max_features"`
	ColdStartHotRatio float64            `yaml:"cold_start_hot_ratio"`
	HistoryLimit      int                `yaml:"history_limit"`
	ActionWeights     map[string]float64 `yaml:"action_weights"`
}

// RedisSection 为空 Addr 时不启用 Redis。
type RedisSection struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

// FeastSection 为空 Host 时不启用 Feast。
type FeastSection struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Project string `yaml:"project"`
}

// LogSection 控制日志级别与格式。
type LogSection struct {
	// Level: debug / info / warn / error，默认 info
	Level string `yaml:"level"`
	// Format: text / json，默认 text
	Format string `yaml:"format"`
}

// Load 从 YAML 文件加载配置并校验。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse 解析 YAML 配置并校验。
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置的取值范围。
func (c *Config) Validate() error {
	e := c.Engine
	if e.ContentWeight < 0 || e.CFWeight < 0 || e.HotWeight < 0 {
		return fmt.Errorf("engine weights must be non-negative")
	}
	if e.ColdStartHotRatio < 0 || e.ColdStartHotRatio > 1 {
		return fmt.Errorf("cold_start_hot_ratio must be in [0, 1]")
	}
	if time.Duration(e.TrainInterval) < 0 {
		return fmt.Errorf("train_interval must be non-negative")
	}
	for action, w := range e.ActionWeights {
		if w < 0 {
			return fmt.Errorf("action weight %q must be non-negative", action)
		}
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// EngineConfig 转换为引擎配置，零值字段由引擎自行补默认。
func (c *Config) EngineConfig() core.EngineConfig {
	e := c.Engine
	cfg := core.EngineConfig{
		ContentWeight:     e.ContentWeight,
		CFWeight:          e.CFWeight,
		HotWeight:         e.HotWeight,
		MinInteractions:   e.MinInteractions,
		TrainInterval:     time.Duration(e.TrainInterval),
		Factors:           e.Factors,
		HotSize:           e.HotSize,
		MaxFeatures:       e.MaxFeatures,
		ColdStartHotRatio: e.ColdStartHotRatio,
		HistoryLimit:      e.HistoryLimit,
	}
	if len(e.ActionWeights) > 0 {
		cfg.ActionWeights = make(map[core.ActionKind]float64, len(e.ActionWeights))
		for action, w := range e.ActionWeights {
			cfg.ActionWeights[core.ActionKind(action)] = w
		}
	}
	return cfg
}
