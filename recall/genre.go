package recall

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/reelkit/reelkit/core"
)

// GenreSource 是类型召回源：取用户画像的前 TopGenres 个常看类型，
// 每个类型并发拉取 PagesPerGenre 页发现结果，按最低票数过滤冷门条目。
//
// 候选标签为 "genre:<类型名>"，baseScore 0.8。类型召回是个性化最强的一路，
// 初始置信度也最高。
type GenreSource struct {
	Catalog core.CatalogService

	// GenreIDs 类型名 → 目录方类型 ID 的映射；未知类型直接跳过
	GenreIDs map[string]int64

	// TopGenres 参与召回的常看类型数，<=0 时取 3
	TopGenres int

	// PagesPerGenre 每个类型并发拉取的页数，<=0 时取 5
	PagesPerGenre int

	// MinVoteCount 最低票数过滤阈值，<=0 时取 100
	MinVoteCount int
}

const genreBaseScore = 0.8

func (r *GenreSource) Name() string { return "recall.genre" }

func (r *GenreSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil || rctx.User == nil {
		return nil, nil
	}

	topN := r.TopGenres
	if topN <= 0 {
		topN = 3
	}
	genres := rctx.User.TopGenres(topN)
	if len(genres) == 0 {
		return nil, nil // 冷启动用户走趋势/高分分支
	}

	pages := r.PagesPerGenre
	if pages <= 0 {
		pages = 5
	}
	minVotes := r.MinVoteCount
	if minVotes <= 0 {
		minVotes = 100
	}

	var (
		mu    sync.Mutex
		all   []*core.Item
		eg, _ = errgroup.WithContext(ctx)
	)

	for _, genre := range genres {
		genreID, ok := r.GenreIDs[genre]
		if !ok {
			continue
		}
		genre := genre
		source := "genre:" + genre

		for page := 1; page <= pages; page++ {
			p := page
			eg.Go(func() error {
				entries, err := r.Catalog.DiscoverByGenre(ctx, genreID, p, minVotes)
				if err != nil {
					return nil // 单页失败不影响其他页
				}
				items := make([]*core.Item, 0, len(entries))
				for _, e := range entries {
					it := entryToItem(e, source, genreBaseScore)
					it.Genres = []string{genre}
					items = append(items, it)
				}
				mu.Lock()
				all = append(all, items...)
				mu.Unlock()
				return nil
			})
		}
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}
