package rerank

import (
	"context"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pipeline"
)

// TopNNode 截断节点：保留前 N 个条目。
// 通常挂在 Pipeline 末尾，作为最终输出条数的兜底约束。
type TopNNode struct {
	// N <= 0 时不截断。
	N int
}

func (n *TopNNode) Name() string        { return "rerank.topn" }
func (n *TopNNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
