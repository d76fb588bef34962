package recall

import (
	"context"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pkg/utils"
)

// Source 表示一个可复用的召回源（类型/协同/趋势/高分/...）。
// 你可以把它理解为“可并发 fan-out 的策略单元”。
// limit 是本次召回的配额，由 Fanout 按份额切分下发。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error)
}

// entryToItem 把目录条目转成召回候选，打上来源标签与初始分。
func entryToItem(e core.CatalogEntry, source string, baseScore float64) *core.Item {
	it := core.NewItem(e.TMDBID, e.MediaType)
	it.Title = e.Title
	it.PosterPath = e.PosterPath
	it.BaseScore = baseScore
	it.Score = baseScore
	it.PutFeature(core.FeaturePopularity, e.Popularity)
	if e.VoteAverage > 0 {
		it.Meta["vote_average"] = e.VoteAverage
	}
	if len(e.GenreIDs) > 0 {
		it.Meta["genre_ids"] = e.GenreIDs
	}
	it.PutLabel("recall_source", utils.Label{Value: source, Source: "recall"})
	return it
}
