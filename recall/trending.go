package recall

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/reelkit/reelkit/core"
)

// TrendingSource 是全局趋势榜召回源：并发拉取多页趋势内容。
// 非个性化，baseScore 0.6，是冷启动用户的主力分支之一。
type TrendingSource struct {
	Catalog core.CatalogService

	// Pages 并发拉取的页数，<=0 时取 5
	Pages int
}

const trendingBaseScore = 0.6

func (r *TrendingSource) Name() string { return "recall.trending" }

func (r *TrendingSource) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	return recallPages(ctx, r.Pages, limit, "trending", trendingBaseScore, r.Catalog.Trending)
}

// TopRatedSource 是全局高分榜召回源，baseScore 0.7。
type TopRatedSource struct {
	Catalog core.CatalogService

	// Pages 并发拉取的页数，<=0 时取 5
	Pages int
}

const topRatedBaseScore = 0.7

func (r *TopRatedSource) Name() string { return "recall.top_rated" }

func (r *TopRatedSource) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	return recallPages(ctx, r.Pages, limit, "top_rated", topRatedBaseScore, r.Catalog.TopRated)
}

// recallPages 并发拉取 pages 页目录内容并合并，单页失败只损失该页。
func recallPages(
	ctx context.Context,
	pages, limit int,
	source string,
	baseScore float64,
	fetch func(ctx context.Context, page int) ([]core.CatalogEntry, error),
) ([]*core.Item, error) {
	if fetch == nil {
		return nil, nil
	}
	if pages <= 0 {
		pages = 5
	}

	var (
		mu    sync.Mutex
		all   []*core.Item
		eg, _ = errgroup.WithContext(ctx)
	)

	for page := 1; page <= pages; page++ {
		p := page
		eg.Go(func() error {
			entries, err := fetch(ctx, p)
			if err != nil {
				return nil
			}
			items := make([]*core.Item, 0, len(entries))
			for _, e := range entries {
				items = append(items, entryToItem(e, source, baseScore))
			}
			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
