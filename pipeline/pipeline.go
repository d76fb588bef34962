// Package pipeline 定义推荐链路的组合框架：Node 接口、顺序执行器与配置驱动的组装。
package pipeline

import (
	"context"
	"time"

	"github.com/reelkit/reelkit/core"
)

// Pipeline 按序执行一组 Node，把上一个 Node 的输出作为下一个的输入。
// 典型编排为 召回 → 过滤 → 排序 → 重排。
type Pipeline struct {
	Nodes []Node

	// Logf 可选日志钩子，记录各 Node 的耗时与条数，nil 时静默。
	Logf func(format string, args ...any)
}

// Run 执行整条链路。每个 Node 执行前检查 ctx，超时/取消立即中断；
// Node 返回 error 时整体失败，降级应发生在 Node 内部而不是这里。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		if p.Logf != nil {
			p.Logf("pipeline: node %s (%s) %d -> %d items in %s",
				node.Name(), node.Kind(), len(cur), len(next), time.Since(start).Round(time.Millisecond))
		}
		cur = next
	}
	return cur, nil
}
