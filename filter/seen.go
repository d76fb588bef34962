package filter

import (
	"context"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pipeline"
)

// SeenNode 剔除用户已经看过的候选：评分过的和加入想看清单的都算“已看”。
//
// 已看集合每次 Process 只加载一次（两次存储读取覆盖整批候选），
// 不做逐条目查询。存储读取失败时退化为不过滤，宁可多推也不中断链路。
type SeenNode struct {
	Ratings core.RatingStore
}

func (n *SeenNode) Name() string        { return "filter.seen" }
func (n *SeenNode) Kind() pipeline.Kind { return pipeline.KindFilter }

func (n *SeenNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Ratings == nil || rctx == nil || rctx.UserID == "" || len(items) == 0 {
		return items, nil
	}

	seen := make(map[string]struct{})
	if ratings, err := n.Ratings.GetUserRatings(ctx, rctx.UserID); err == nil {
		for _, rt := range ratings {
			seen[rt.Key()] = struct{}{}
		}
	}
	if watchlist, err := n.Ratings.GetWatchlist(ctx, rctx.UserID); err == nil {
		for _, ref := range watchlist {
			seen[ref.Key()] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if _, ok := seen[it.Key()]; ok {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}
