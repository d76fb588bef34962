package filter

import (
	"context"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pipeline"
	"github.com/reelkit/reelkit/pkg/utils"
)

// Node 把若干 Filter 组合成一个过滤阶段：任一过滤器命中即剔除。
// 被剔除的候选打上 filtered 标签（Source 为命中的过滤器名），便于排查。
type Node struct {
	Filters []Filter
}

func (n *Node) Name() string        { return "filter.compose" }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *Node) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		hit := ""
		for _, f := range n.Filters {
			drop, err := f.ShouldFilter(ctx, rctx, it)
			if err != nil {
				continue
			}
			if drop {
				hit = f.Name()
				break
			}
		}
		if hit != "" {
			it.PutLabel("filtered", utils.Label{Value: "true", Source: hit})
			continue
		}
		out = append(out, it)
	}
	return out, nil
}
