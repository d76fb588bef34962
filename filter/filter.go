// Package filter 提供过滤阶段的 Node 实现与可组合的过滤器抽象。
package filter

import (
	"context"

	"github.com/reelkit/reelkit/core"
)

// Filter 对单个候选做保留/剔除判定，返回 true 表示剔除。
// 判定失败（err 非 nil）按保留处理，过滤层的失败语义始终是放行。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
