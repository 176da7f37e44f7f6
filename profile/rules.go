package profile

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/newsrec/core"
)

// TypeRule 是一条用户类型规则：CEL 表达式命中时给用户打上 Tag。
// 表达式可用变量：
//
//	stats          行为统计（map：total/view_count/like_count/favorite_count/comment_count/unique_articles）
//	night_ratio    夜间交互占比（22-23 点与 0-6 点）
//	morning_ratio  清晨交互占比（6-9 点）
type TypeRule struct {
	Expr string
	Tag  string
}

// DefaultTypeRules 内置规则集，按声明顺序求值，命中多条则得到多个类型标签。
func DefaultTypeRules() []TypeRule {
	return []TypeRule{
		{Expr: `stats.favorite_count >= 10`, Tag: "collector"},
		{Expr: `stats.comment_count >= 5`, Tag: "active commenter"},
		{Expr: `stats.like_count >= 20`, Tag: "heavy liker"},
		{Expr: `stats.total >= 50`, Tag: "power user"},
		{Expr: `stats.total >= 20 && stats.total < 50`, Tag: "regular user"},
		{Expr: `stats.total < 20`, Tag: "new user"},
		{Expr: `night_ratio > 0.3`, Tag: "night owl"},
		{Expr: `morning_ratio > 0.3`, Tag: "early bird"},
	}
}

// compiledRule 是编译后的单条规则。
type compiledRule struct {
	prg cel.Program
	tag string
}

// RuleSet 是编译好的用户类型规则集，编译一次后可并发求值。
type RuleSet struct {
	rules []compiledRule
}

// NewRuleSet 编译规则集，任何一条表达式不合法即报错。
func NewRuleSet(rules []TypeRule) (*RuleSet, error) {
	env, err := cel.NewEnv(
		cel.Variable("stats", cel.DynType),
		cel.Variable("night_ratio", cel.DoubleType),
		cel.Variable("morning_ratio", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	rs := &RuleSet{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		ast, iss := env.Compile(r.Expr)
		if iss != nil && iss.Err() != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Expr, iss.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program rule %q: %w", r.Expr, err)
		}
		rs.rules = append(rs.rules, compiledRule{prg: prg, tag: r.Tag})
	}
	return rs, nil
}

// MustRuleSet 编译规则集，失败时 panic。仅用于内置规则。
func MustRuleSet(rules []TypeRule) *RuleSet {
	rs, err := NewRuleSet(rules)
	if err != nil {
		panic(err)
	}
	return rs
}

// Apply 对行为统计逐条求值，返回命中的类型标签（保持规则声明顺序）。
// 求值出错的规则跳过；一条都没命中时返回 ["regular user"]。
func (rs *RuleSet) Apply(stats core.BehaviorStats, nightRatio, morningRatio float64) []string {
	input := map[string]any{
		"stats": map[string]any{
			"total":           stats.TotalInteractions,
			"view_count":      stats.ViewCount,
			"like_count":      stats.LikeCount,
			"favorite_count":  stats.FavoriteCount,
			"comment_count":   stats.CommentCount,
			"unique_articles": stats.UniqueArticles,
		},
		"night_ratio":   nightRatio,
		"morning_ratio": morningRatio,
	}
	tags := make([]string, 0, 2)
	for _, r := range rs.rules {
		out, _, err := r.prg.Eval(input)
		if err != nil {
			continue
		}
		if hit, ok := out.Value().(bool); ok && hit {
			tags = append(tags, r.tag)
		}
	}
	if len(tags) == 0 {
		tags = append(tags, "regular user")
	}
	return tags
}
