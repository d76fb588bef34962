// Package rerank 提供重排阶段的 Node 实现：多样性重排与 Top-N 截断。
package rerank

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/diversity"
	"github.com/reelkit/reelkit/pipeline"
	"github.com/reelkit/reelkit/pkg/dsl"
	"github.com/reelkit/reelkit/pkg/utils"
)

// 同一召回源连排超过容忍长度后，后续条目降权。
// 容忍长度取 Config.MaxConsecutiveSameGenre，未配置时为 3。
const (
	defaultMaxSourceRun = 3
	sourceRunFactor     = 0.8
)

// DiversifyNode 多样性重排节点：
//   - 对精排头部（2 倍输出条数）做 MMR 重排
//   - 对同一召回源的连排降权并重新排序
//   - epsilon 探索：从长尾注入少量中分候选
//   - 截断后一次批量元数据回填，计算 diversity_score 并生成推荐理由
//   - 多样性指标异步落盘，仅用于监控，失败不影响结果
type DiversifyNode struct {
	Engine *diversity.Engine

	// Config 为零值时取 diversity.DefaultConfig()；显式配置逐字段按字面生效，
	// Lambda=0 是合法的纯多样性 MMR，仅越界值回退默认。
	Config diversity.Config

	Metadata core.MetadataService
	Metrics  core.MetricsStore
	Reasons  *dsl.RuleSet

	// Limit 为最终输出条数，<=0 时取 50。
	Limit int

	// Logf 为可选日志钩子，nil 时静默。
	Logf func(format string, args ...any)
}

func (n *DiversifyNode) Name() string        { return "rerank.diversify" }
func (n *DiversifyNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *DiversifyNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	limit := n.Limit
	if limit <= 0 {
		limit = 50
	}
	cfg := n.config()

	byKey := make(map[string]*core.Item, len(items))
	for _, it := range items {
		if it != nil {
			byKey[it.Key()] = it
		}
	}

	head := items
	if len(head) > 2*limit {
		head = head[:2*limit]
	}

	// MMR 重排：输入按精排分降序，λ 控制相关性与差异度的折中。
	ordered := n.toItems(diversity.MMR(toCandidates(head), cfg.Lambda, len(head)), byKey)

	// 同源连排降权后重新排序。
	maxRun := cfg.MaxConsecutiveSameGenre
	if maxRun <= 0 {
		maxRun = defaultMaxSourceRun
	}
	penalizeSourceRuns(ordered, maxRun)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	// epsilon 探索：尾部替换为全量候选池中截断线以下的中分条目。
	if len(ordered) > limit {
		explorer := &diversity.Explorer{
			Epsilon:          cfg.EpsilonExploration,
			PercentileCutoff: 0.5,
		}
		if n.Engine != nil {
			explorer.Rand = n.Engine.Rand()
		}
		explored := explorer.Explore(toCandidates(ordered[:limit]), toCandidates(items))
		ordered = n.toItems(explored, byKey)
	}
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	n.enrich(ctx, ordered)

	finalCands := toCandidates(ordered)
	for i, d := range diversity.PairwiseDiversity(finalCands) {
		ordered[i].PutFeature(core.FeatureDiversity, d)
	}

	prefs := rctx.FavoriteGenres()
	if n.Reasons != nil {
		for _, it := range ordered {
			reasons := n.Reasons.Reasons(it, rctx)
			it.PutLabel("reason", utils.Label{Value: reasons[0], Source: "rerank"})
			if it.Meta == nil {
				it.Meta = make(map[string]any)
			}
			it.Meta["reasons"] = reasons
		}
	}

	n.persistMetrics(rctx, finalCands, prefs, cfg.EpsilonExploration)
	return ordered, nil
}

// config 返回本次执行生效的配置：零值 Config 取线上默认，
// 显式配置按字面生效，仅越界的 Lambda 回退默认值。
func (n *DiversifyNode) config() diversity.Config {
	cfg := n.Config
	if cfg == (diversity.Config{}) {
		cfg = diversity.DefaultConfig()
	}
	if cfg.Lambda < 0 || cfg.Lambda > 1 {
		cfg.Lambda = diversity.DefaultConfig().Lambda
	}
	return cfg
}

// enrich 对最终序列做一次批量元数据回填。元数据整体失败或单条缺失时
// 保留候选原值，类型留空的候选在后续指标计算中按无类型处理。
func (n *DiversifyNode) enrich(ctx context.Context, items []*core.Item) {
	if n.Metadata == nil || len(items) == 0 {
		return
	}
	refs := make([]core.ItemRef, 0, len(items))
	for _, it := range items {
		refs = append(refs, core.ItemRef{
			TMDBID:     it.TMDBID,
			MediaType:  it.MediaType,
			Title:      it.Title,
			PosterPath: it.PosterPath,
		})
	}
	meta, err := n.Metadata.BatchMetadata(ctx, refs)
	if err != nil {
		n.logf("rerank.diversify: batch metadata failed: %v", err)
		return
	}
	for _, it := range items {
		m, ok := meta[it.Key()]
		if !ok {
			continue
		}
		if len(m.Genres) > 0 {
			it.Genres = m.Genres
		}
		if it.PosterPath == "" {
			it.PosterPath = m.PosterPath
		}
		if it.Meta == nil {
			it.Meta = make(map[string]any)
		}
		it.Meta["vote_average"] = m.VoteAverage
		it.Meta["release_date"] = m.ReleaseDate
		it.Meta["overview"] = m.Overview
		it.Meta["runtime"] = m.Runtime
	}
}

// persistMetrics 异步写多样性指标。匿名与演示用户不落盘；
// 写入失败只记日志，绝不影响已经返回的推荐结果。
func (n *DiversifyNode) persistMetrics(rctx *core.RecommendContext, cands []diversity.Candidate, prefs []string, epsilon float64) {
	if n.Metrics == nil || rctx == nil || rctx.UserID == "" ||
		strings.HasPrefix(rctx.UserID, "demo") {
		return
	}
	userID := rctx.UserID
	m := diversity.CalculateMetrics(cands, prefs)
	m.ExplorationRate = epsilon

	go func() {
		row := core.DiversityMetrics{
			UserID:           userID,
			IntraDiversity:   m.IntraDiversity,
			GenreBalance:     m.GenreBalance,
			SerendipityScore: m.SerendipityScore,
			ExplorationRate:  m.ExplorationRate,
			CoverageScore:    m.CoverageScore,
			ItemCount:        len(cands),
			CreatedAt:        time.Now(),
		}
		if err := n.Metrics.InsertDiversityMetrics(context.Background(), row); err != nil {
			n.logf("rerank.diversify: metrics insert failed for user %s: %v", userID, err)
		}
	}()
}

func (n *DiversifyNode) toItems(cands []diversity.Candidate, byKey map[string]*core.Item) []*core.Item {
	out := make([]*core.Item, 0, len(cands))
	for _, c := range cands {
		if it, ok := byKey[c.ID]; ok {
			out = append(out, it)
		}
	}
	return out
}

func (n *DiversifyNode) logf(format string, args ...any) {
	if n.Logf != nil {
		n.Logf(format, args...)
	}
}

// penalizeSourceRuns 对同一召回源连排超过 maxRun 的条目做乘性降权。
func penalizeSourceRuns(items []*core.Item, maxRun int) {
	run := 0
	prev := ""
	for _, it := range items {
		src := it.RecallSource()
		if src != "" && src == prev {
			run++
		} else {
			run = 1
			prev = src
		}
		if run > maxRun {
			it.Score *= sourceRunFactor
		}
	}
}

func toCandidates(items []*core.Item) []diversity.Candidate {
	out := make([]diversity.Candidate, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, diversity.Candidate{
			ID:        it.Key(),
			TMDBID:    it.TMDBID,
			MediaType: it.MediaType,
			Score:     it.Score,
			Genres:    it.Genres,
			Embedding: it.Embedding,
		})
	}
	return out
}
