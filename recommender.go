package reelkit

import (
	"context"
	"time"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/diversity"
	"github.com/reelkit/reelkit/filter"
	"github.com/reelkit/reelkit/pipeline"
	"github.com/reelkit/reelkit/pkg/dsl"
	"github.com/reelkit/reelkit/profile"
	"github.com/reelkit/reelkit/rank"
	"github.com/reelkit/reelkit/recall"
	"github.com/reelkit/reelkit/rerank"
)

// Options 控制单次推荐的规模与时限。
type Options struct {
	// CandidateCount 候选池上限，<=0 时取 2000
	CandidateCount int

	// RankingLimit 精排输出条数，<=0 时取 200
	RankingLimit int

	// FinalLimit 最终输出条数，<=0 时取 50
	FinalLimit int

	// Timeout 整次请求的时间预算，0 表示只受调用方 ctx 约束
	Timeout time.Duration

	// Diversity 多样性配置；零值时取 diversity.DefaultConfig
	Diversity diversity.Config
}

func (o Options) withDefaults() Options {
	if o.CandidateCount <= 0 {
		o.CandidateCount = 2000
	}
	if o.RankingLimit <= 0 {
		o.RankingLimit = 200
	}
	if o.FinalLimit <= 0 {
		o.FinalLimit = 50
	}
	if o.Diversity == (diversity.Config{}) {
		o.Diversity = diversity.DefaultConfig()
	}
	return o
}

// Recommender 把画像构建与四阶段 Pipeline 组装成开箱即用的推荐入口。
//
// 所有协作方接口在构造时注入；除 Ratings 外任意一项可以为 nil，
// 对应环节按降级语义工作。更细粒度的编排请直接使用 pipeline 包。
type Recommender struct {
	Catalog  core.CatalogService
	Metadata core.MetadataService
	Ratings  core.RatingStore
	Scores   core.ScoreService
	Weights  core.WeightService
	Metrics  core.MetricsStore

	// Profile 为可选的画像构建器；nil 时内部用 Ratings+Metadata 组装。
	Profile *profile.Builder

	// Engine 为可选的多样性引擎；nil 时使用时间种子的默认引擎。
	Engine *diversity.Engine

	// Reasons 为可选的理由规则集；nil 时使用内置规则。
	Reasons *dsl.RuleSet

	// Logf 可选日志钩子，nil 时静默。
	Logf func(format string, args ...any)
}

// 召回源份额：类型 40%、协同 30%、趋势 20%、高分榜 10%。
const (
	genreShare         = 0.4
	collaborativeShare = 0.3
	trendingShare      = 0.2
	topRatedShare      = 0.1
)

// GetRecommendations 执行完整链路并返回最终推荐序列。
//
// 唯一的硬失败是空 userID；画像构建失败降级为非个性化推荐，
// 各召回源/打分方失败由对应 Node 就地降级。
func (r *Recommender) GetRecommendations(ctx context.Context, userID string, opts Options) ([]*core.Item, error) {
	if userID == "" {
		return nil, core.ErrInvalidUser
	}
	opts = opts.withDefaults()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	rctx := &core.RecommendContext{UserID: userID, Scene: "home"}
	user, err := r.builder().Build(ctx, userID)
	if err != nil {
		r.logf("recommender: profile build failed for user %s: %v", userID, err)
	} else {
		rctx.User = user
	}

	p := r.buildPipeline(opts)
	return p.Run(ctx, rctx, nil)
}

func (r *Recommender) builder() *profile.Builder {
	if r.Profile != nil {
		return r.Profile
	}
	return &profile.Builder{Ratings: r.Ratings, Metadata: r.Metadata}
}

func (r *Recommender) buildPipeline(opts Options) *pipeline.Pipeline {
	engine := r.Engine
	if engine == nil {
		engine = diversity.New(nil)
	}
	reasons := r.Reasons
	if reasons == nil {
		reasons = dsl.MustDefaultRuleSet()
	}

	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources: []recall.WeightedSource{
					{Source: &recall.GenreSource{Catalog: r.Catalog, GenreIDs: recall.DefaultGenreIDs}, Share: genreShare},
					{Source: &recall.CollaborativeSource{Ratings: r.Ratings}, Share: collaborativeShare},
					{Source: &recall.TrendingSource{Catalog: r.Catalog}, Share: trendingShare},
					{Source: &recall.TopRatedSource{Catalog: r.Catalog}, Share: topRatedShare},
				},
				TargetCount: opts.CandidateCount,
			},
			&filter.SeenNode{Ratings: r.Ratings},
			&rank.EnsembleNode{
				Scores:  r.Scores,
				Weights: r.Weights,
				Limit:   opts.RankingLimit,
				Logf:    r.Logf,
			},
			&rerank.DiversifyNode{
				Engine:   engine,
				Config:   opts.Diversity,
				Metadata: r.Metadata,
				Metrics:  r.Metrics,
				Reasons:  reasons,
				Limit:    opts.FinalLimit,
				Logf:     r.Logf,
			},
		},
	}
}

func (r *Recommender) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}
