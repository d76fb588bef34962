// Package rank 提供精排阶段的 Node 实现。
//
// EnsembleNode 把模型分与画像信号加权融合成最终排序分，
// 模型不可用时按候选逐条退化到召回基础分，保证排序阶段永不中断。
package rank

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pipeline"
	"github.com/reelkit/reelkit/pkg/utils"
)

// 融合权重：模型分占大头，画像信号与质量分做修正。
const (
	mlWeight      = 0.50
	genreWeight   = 0.25
	collabWeight  = 0.15
	qualityWeight = 0.10
)

// 协同召回来源的候选带有“相似用户也喜欢”的先验。
const collaborativeSignal = 0.8

// 流派信号：流派召回命中给高值，其他来源给保底值。
const (
	genreMatchHit  = 0.8
	genreMatchBase = 0.3
)

// EnsembleNode 精排节点：
//   - 并发调用 ScoreService 逐候选打分（有限并发）
//   - 失败的候选用 BaseScore 兜底并打 ml_fallback 标签
//   - 按融合公式计算 Score，写入各分量 feature，降序截断到 Limit
type EnsembleNode struct {
	Scores  core.ScoreService
	Weights core.WeightService

	// Limit 为精排输出条数上限，<=0 时取 200。
	Limit int
	// MaxConcurrent 控制同时在途的打分请求数，<=0 时取 32。
	MaxConcurrent int

	// Logf 为可选日志钩子，nil 时静默。
	Logf func(format string, args ...any)
}

func (n *EnsembleNode) Name() string        { return "rank.ensemble" }
func (n *EnsembleNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *EnsembleNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	weights := n.fetchWeights(ctx, rctx)
	n.predictAll(ctx, rctx, items)

	for _, it := range items {
		if it == nil {
			continue
		}
		ml := it.Features[core.FeatureMLScore]

		collab := 0.0
		if it.RecallSource() == "collaborative" {
			collab = collaborativeSignal
		}

		genreMatch := genreMatchBase
		if it.FromGenreRecall() {
			genreMatch = genreMatchHit
		}

		quality := it.BaseScore

		it.PutFeature(core.FeatureCollaborative, collab)
		it.PutFeature(core.FeatureGenreMatch, genreMatch)
		it.PutFeature(core.FeatureQuality, quality)

		it.Score = core.Clamp01(
			ml*mlWeight +
				genreMatch*weights.GenreMatch*genreWeight +
				collab*collabWeight +
				quality*weights.RatingQuality*qualityWeight,
		)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})

	limit := n.Limit
	if limit <= 0 {
		limit = 200
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// fetchWeights 取个性化融合权重，服务缺失或出错时退回默认权重。
func (n *EnsembleNode) fetchWeights(ctx context.Context, rctx *core.RecommendContext) core.Weights {
	if n.Weights == nil || rctx == nil || rctx.UserID == "" {
		return core.DefaultWeights()
	}
	w, err := n.Weights.AdaptiveWeights(ctx, rctx.UserID)
	if err != nil {
		n.logf("rank.ensemble: adaptive weights unavailable for user %s: %v", rctx.UserID, err)
		return core.DefaultWeights()
	}
	return w
}

// predictAll 为每个候选写入 ml_score feature。
// 每个 goroutine 只写自己负责的 item，不需要额外加锁。
func (n *EnsembleNode) predictAll(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) {
	userID := ""
	if rctx != nil {
		userID = rctx.UserID
	}

	if n.Scores == nil {
		for _, it := range items {
			if it != nil {
				n.fallback(it)
			}
		}
		return
	}

	maxConcurrent := n.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 32
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for _, it := range items {
		if it == nil {
			continue
		}
		it := it
		g.Go(func() error {
			score, err := n.Scores.PredictScore(gctx, userID, it.TMDBID, it.MediaType)
			if err != nil {
				n.fallback(it)
				return nil
			}
			it.PutFeature(core.FeatureMLScore, core.Clamp01(score))
			return nil
		})
	}
	_ = g.Wait()
}

// fallback 把模型分退化为召回基础分并标记来源。
func (n *EnsembleNode) fallback(it *core.Item) {
	it.PutFeature(core.FeatureMLScore, core.Clamp01(it.BaseScore))
	it.PutLabel("ml_fallback", utils.Label{Value: "base_score", Source: "rank"})
}

func (n *EnsembleNode) logf(format string, args ...any) {
	if n.Logf != nil {
		n.Logf(format, args...)
	}
}
