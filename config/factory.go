// Package config 把外部协作方注入到 Node 工厂，
// 使 Pipeline 可以完全由 YAML/JSON 配置驱动。
package config

import (
	"fmt"
	"time"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/diversity"
	"github.com/reelkit/reelkit/filter"
	"github.com/reelkit/reelkit/pipeline"
	"github.com/reelkit/reelkit/pkg/conv"
	"github.com/reelkit/reelkit/pkg/dsl"
	"github.com/reelkit/reelkit/rank"
	"github.com/reelkit/reelkit/recall"
	"github.com/reelkit/reelkit/rerank"
)

// Deps 是 Node 构建所需的外部协作方集合。
// 接口实现由调用方在启动时组装；任意一项可以为 nil，
// 对应 Node 按各自的降级语义工作。
type Deps struct {
	Catalog  core.CatalogService
	Metadata core.MetadataService
	Ratings  core.RatingStore
	Scores   core.ScoreService
	Weights  core.WeightService
	Metrics  core.MetricsStore

	Engine  *diversity.Engine
	Reasons *dsl.RuleSet

	// Logf 可选日志钩子，透传给各 Node。
	Logf func(format string, args ...any)
}

// NewFactory 返回注册了全部内置 Node 的工厂。
func NewFactory(deps Deps) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	factory.Register("recall.fanout", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildFanoutNode(deps, cfg)
	})
	factory.Register("filter.seen", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return &filter.SeenNode{Ratings: deps.Ratings}, nil
	})
	factory.Register("filter.compose", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildComposeFilterNode(cfg)
	})
	factory.Register("rank.ensemble", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildEnsembleNode(deps, cfg)
	})
	factory.Register("rerank.diversify", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildDiversifyNode(deps, cfg)
	})
	factory.Register("rerank.topn", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return &rerank.TopNNode{N: int(conv.ConfigGetInt64(cfg, "n", 0))}, nil
	})

	return factory
}

func buildFanoutNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	sources := make([]recall.WeightedSource, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		sourceType := conv.ConfigGet[string](sourceMap, "type", "")
		share := conv.ConfigGetFloat64(sourceMap, "share", 0)

		var src recall.Source
		switch sourceType {
		case "genre":
			src = &recall.GenreSource{
				Catalog:       deps.Catalog,
				GenreIDs:      recall.DefaultGenreIDs,
				TopGenres:     int(conv.ConfigGetInt64(sourceMap, "top_genres", 0)),
				PagesPerGenre: int(conv.ConfigGetInt64(sourceMap, "pages_per_genre", 0)),
				MinVoteCount:  int(conv.ConfigGetInt64(sourceMap, "min_vote_count", 0)),
			}
		case "collaborative":
			src = &recall.CollaborativeSource{
				Ratings:        deps.Ratings,
				WindowSize:     int(conv.ConfigGetInt64(sourceMap, "window_size", 0)),
				TopKUsers:      int(conv.ConfigGetInt64(sourceMap, "top_k_users", 0)),
				MinCommonItems: int(conv.ConfigGetInt64(sourceMap, "min_common_items", 0)),
				LikeThreshold:  conv.ConfigGetFloat64(sourceMap, "like_threshold", 0),
			}
		case "trending":
			src = &recall.TrendingSource{
				Catalog: deps.Catalog,
				Pages:   int(conv.ConfigGetInt64(sourceMap, "pages", 0)),
			}
		case "top_rated":
			src = &recall.TopRatedSource{
				Catalog: deps.Catalog,
				Pages:   int(conv.ConfigGetInt64(sourceMap, "pages", 0)),
			}
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
		sources = append(sources, recall.WeightedSource{Source: src, Share: share})
	}

	fanout := &recall.Fanout{
		Sources:     sources,
		TargetCount: int(conv.ConfigGetInt64(cfg, "target_count", 0)),
	}
	if sec := conv.ConfigGetInt64(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt64(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = int(n)
	}
	return fanout, nil
}

func buildComposeFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	var filters []filter.Filter
	if genres := conv.SliceAnyToString(cfg["block_genres"]); len(genres) > 0 {
		filters = append(filters, filter.NewGenreBlockFilter(genres))
	}
	if types := conv.SliceAnyToString(cfg["media_types"]); len(types) > 0 {
		filters = append(filters, &filter.MediaTypeFilter{Types: types})
	}
	return &filter.Node{Filters: filters}, nil
}

func buildEnsembleNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	return &rank.EnsembleNode{
		Scores:        deps.Scores,
		Weights:       deps.Weights,
		Limit:         int(conv.ConfigGetInt64(cfg, "limit", 0)),
		MaxConcurrent: int(conv.ConfigGetInt64(cfg, "max_concurrent", 0)),
		Logf:          deps.Logf,
	}, nil
}

func buildDiversifyNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	dcfg := diversity.DefaultConfig()
	dcfg.Lambda = conv.ConfigGetFloat64(cfg, "lambda", dcfg.Lambda)
	dcfg.EpsilonExploration = conv.ConfigGetFloat64(cfg, "epsilon", dcfg.EpsilonExploration)
	dcfg.SerendipityRate = conv.ConfigGetFloat64(cfg, "serendipity_rate", dcfg.SerendipityRate)
	dcfg.MaxConsecutiveSameGenre = int(conv.ConfigGetInt64(cfg, "max_consecutive", int64(dcfg.MaxConsecutiveSameGenre)))
	if m := conv.ConfigGet[string](cfg, "metric", ""); m != "" {
		dcfg.Metric = diversity.Metric(m)
	}

	engine := deps.Engine
	if engine == nil {
		engine = diversity.New(nil)
	}
	return &rerank.DiversifyNode{
		Engine:   engine,
		Config:   dcfg,
		Metadata: deps.Metadata,
		Metrics:  deps.Metrics,
		Reasons:  deps.Reasons,
		Limit:    int(conv.ConfigGetInt64(cfg, "limit", 0)),
		Logf:     deps.Logf,
	}, nil
}
