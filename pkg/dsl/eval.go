// Package dsl 提供基于 CEL (Common Expression Language) 的推荐理由规则引擎。
//
// 规则以表达式描述候选的特征条件，命中则给出对应的展示理由文案，
// 表达式编译一次后可并发复用。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/reelkit/reelkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("feature", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, err
}

// ReasonRule 是一条推荐理由规则：表达式命中时返回对应文案。
//
// 表达式使用 CEL 标准语法，可用变量：
//   - feature.ml_score > 0.7        数值特征
//   - label.recall_source != null   标签存在性
//   - item.score >= 0.5             候选分数
//   - rctx.scene == "home"          请求上下文
type ReasonRule struct {
	Expr   string
	Reason string
}

// DefaultReasonRules 返回按优先级排列的内置理由规则：
// Reason 取首条命中，Reasons 按序收集全部命中，全部未命中时使用 FallbackReason。
func DefaultReasonRules() []ReasonRule {
	return []ReasonRule{
		{Expr: `feature.ml_score > 0.7`, Reason: "为你量身预测的高分匹配"},
		{Expr: `feature.genre_match > 0.5`, Reason: "符合你偏爱的类型"},
		{Expr: `feature.collaborative_score > 0.5`, Reason: "和你口味相近的用户也喜欢"},
		{Expr: `feature.quality_score > 0.8`, Reason: "广受好评的高分佳作"},
	}
}

// FallbackReason 是所有规则均未命中时的兜底文案。
const FallbackReason = "为你推荐"

// RuleSet 持有一组已编译的理由规则，编译一次后可并发复用。
type RuleSet struct {
	rules []compiledRule
}

type compiledRule struct {
	prg    cel.Program
	reason string
}

// NewRuleSet 编译规则集，任一表达式非法即返回错误。
func NewRuleSet(rules []ReasonRule) (*RuleSet, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	rs := &RuleSet{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		ast, issues := env.Compile(r.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("compile %q: %w", r.Expr, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("program %q: %w", r.Expr, err)
		}
		rs.rules = append(rs.rules, compiledRule{prg: prg, reason: r.Reason})
	}
	return rs, nil
}

// MustDefaultRuleSet 编译内置规则集，内置规则保证可编译。
func MustDefaultRuleSet() *RuleSet {
	rs, err := NewRuleSet(DefaultReasonRules())
	if err != nil {
		panic(err)
	}
	return rs
}

// Reason 返回首条命中的文案，即 Reasons 的第一个元素。
func (rs *RuleSet) Reason(item *core.Item, rctx *core.RecommendContext) string {
	return rs.Reasons(item, rctx)[0]
}

// Reasons 依序求值各规则，按规则顺序返回全部命中的文案；
// 无一命中时返回只含 FallbackReason 的单元素列表，调用方无需判空。
// 单条规则求值出错只跳过该条（例如引用了不存在的 key）。
func (rs *RuleSet) Reasons(item *core.Item, rctx *core.RecommendContext) []string {
	if rs == nil || item == nil {
		return []string{FallbackReason}
	}
	input := buildInput(item, rctx)
	var hits []string
	for _, r := range rs.rules {
		out, _, err := r.prg.Eval(input)
		if err != nil {
			continue
		}
		if hit, ok := out.Value().(bool); ok && hit {
			hits = append(hits, r.reason)
		}
	}
	if len(hits) == 0 {
		return []string{FallbackReason}
	}
	return hits
}

// buildInput 构建 CEL 表达式的输入数据。
// 所有 feature 值补零缺省，规则里可以放心直接比较数值。
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	features := map[string]any{
		core.FeatureMLScore:       0.0,
		core.FeatureGenreMatch:    0.0,
		core.FeatureCollaborative: 0.0,
		core.FeatureQuality:       0.0,
		core.FeaturePopularity:    0.0,
		core.FeatureDiversity:     0.0,
	}
	for k, v := range item.Features {
		features[k] = v
	}

	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	itemMap := map[string]any{
		"tmdb_id":    item.TMDBID,
		"media_type": item.MediaType,
		"title":      item.Title,
		"score":      item.Score,
		"base_score": item.BaseScore,
		"genres":     item.Genres,
	}

	rctxMap := map[string]any{
		"user_id": "",
		"scene":   "",
	}
	if rctx != nil {
		rctxMap["user_id"] = rctx.UserID
		rctxMap["scene"] = rctx.Scene
	}

	return map[string]any{
		"item":    itemMap,
		"feature": features,
		"label":   labels,
		"rctx":    rctxMap,
	}
}
