package rank

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pkg/utils"
)

// stubScores 按条目 ID 返回预置分数，未配置的 ID 返回错误。
type stubScores struct {
	scores map[int64]float64
}

func (s *stubScores) PredictScore(_ context.Context, _ string, tmdbID int64, _ string) (float64, error) {
	if v, ok := s.scores[tmdbID]; ok {
		return v, nil
	}
	return 0, errors.New("model unavailable")
}

func (s *stubScores) Health(_ context.Context) error { return nil }
func (s *stubScores) Close() error                   { return nil }

type stubWeights struct {
	w   core.Weights
	err error
}

func (s *stubWeights) AdaptiveWeights(_ context.Context, _ string) (core.Weights, error) {
	return s.w, s.err
}

func rankedItem(tmdbID int64, baseScore float64, source string) *core.Item {
	it := core.NewItem(tmdbID, core.MediaTypeMovie)
	it.BaseScore = baseScore
	it.Score = baseScore
	it.PutLabel("recall_source", utils.Label{Value: source, Source: "recall"})
	return it
}

func TestEnsembleNode_Formula(t *testing.T) {
	// 协同来源候选：ml=0.8，collab=0.8，genreMatch=0.3，quality=0.7
	it := rankedItem(1, 0.7, "collaborative")
	n := &EnsembleNode{
		Scores:  &stubScores{scores: map[int64]float64{1: 0.8}},
		Weights: &stubWeights{w: core.DefaultWeights()},
	}

	out, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u"}, []*core.Item{it})
	if err != nil {
		t.Fatalf("Process 失败: %v", err)
	}

	want := 0.8*0.50 + 0.3*1.0*0.25 + 0.8*0.15 + 0.7*1.0*0.10
	if math.Abs(out[0].Score-want) > 1e-9 {
		t.Fatalf("期望融合分 %f，实际 %f", want, out[0].Score)
	}
	if out[0].Features[core.FeatureMLScore] != 0.8 {
		t.Fatalf("ml_score 特征应为 0.8，实际 %f", out[0].Features[core.FeatureMLScore])
	}
	if out[0].Features[core.FeatureCollaborative] != 0.8 {
		t.Fatalf("协同来源的 collaborative_score 应为 0.8")
	}
}

func TestEnsembleNode_GenreSignal(t *testing.T) {
	genre := rankedItem(1, 0.8, "genre:Action")
	other := rankedItem(2, 0.8, "trending")

	n := &EnsembleNode{
		Scores: &stubScores{scores: map[int64]float64{1: 0.5, 2: 0.5}},
	}
	out, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u"}, []*core.Item{genre, other})
	if err != nil {
		t.Fatalf("Process 失败: %v", err)
	}

	var g, o *core.Item
	for _, it := range out {
		switch it.TMDBID {
		case 1:
			g = it
		case 2:
			o = it
		}
	}
	if g.Features[core.FeatureGenreMatch] != 0.8 {
		t.Fatalf("类型召回候选的 genre_match 应为 0.8，实际 %f", g.Features[core.FeatureGenreMatch])
	}
	if o.Features[core.FeatureGenreMatch] != 0.3 {
		t.Fatalf("其他来源的 genre_match 应为保底 0.3，实际 %f", o.Features[core.FeatureGenreMatch])
	}
	if g.Score <= o.Score {
		t.Fatalf("同等条件下类型召回候选应得分更高: %f <= %f", g.Score, o.Score)
	}
}

func TestEnsembleNode_MLFailureFallsBackPerItem(t *testing.T) {
	ok := rankedItem(1, 0.6, "trending")
	failed := rankedItem(2, 0.9, "trending")

	n := &EnsembleNode{
		Scores: &stubScores{scores: map[int64]float64{1: 0.7}}, // 2 没有配置，打分失败
	}
	out, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u"}, []*core.Item{ok, failed})
	if err != nil {
		t.Fatalf("单条打分失败不应中断: %v", err)
	}

	var f *core.Item
	for _, it := range out {
		if it.TMDBID == 2 {
			f = it
		}
	}
	if f.Features[core.FeatureMLScore] != 0.9 {
		t.Fatalf("失败候选的 ml_score 应回退到 BaseScore 0.9，实际 %f", f.Features[core.FeatureMLScore])
	}
	if _, ok := f.Labels["ml_fallback"]; !ok {
		t.Fatal("失败候选应带 ml_fallback 标签")
	}
}

func TestEnsembleNode_NilScoresAllFallback(t *testing.T) {
	items := []*core.Item{
		rankedItem(1, 0.6, "trending"),
		rankedItem(2, 0.8, "trending"),
		rankedItem(3, 0.7, "trending"),
	}
	n := &EnsembleNode{}

	out, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u"}, items)
	if err != nil {
		t.Fatalf("无打分服务不应报错: %v", err)
	}

	// 全部回退到 BaseScore 后仍应降序
	for i := 1; i < len(out); i++ {
		if out[i-1].Score < out[i].Score {
			t.Fatalf("结果应降序: 位置 %d %f < %f", i, out[i-1].Score, out[i].Score)
		}
	}
	if out[0].TMDBID != 2 {
		t.Fatalf("BaseScore 最高的候选应排第一，实际 %d", out[0].TMDBID)
	}
}

func TestEnsembleNode_WeightServiceFailureUsesDefaults(t *testing.T) {
	it := rankedItem(1, 0.7, "collaborative")
	n := &EnsembleNode{
		Scores:  &stubScores{scores: map[int64]float64{1: 0.8}},
		Weights: &stubWeights{err: errors.New("feast down")},
	}

	out, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u"}, []*core.Item{it})
	if err != nil {
		t.Fatalf("权重服务失败不应中断: %v", err)
	}

	want := 0.8*0.50 + 0.3*1.0*0.25 + 0.8*0.15 + 0.7*1.0*0.10
	if math.Abs(out[0].Score-want) > 1e-9 {
		t.Fatalf("权重失败应退回默认乘子，期望 %f 实际 %f", want, out[0].Score)
	}
}

func TestEnsembleNode_ClampAndLimit(t *testing.T) {
	items := make([]*core.Item, 0, 5)
	for i := int64(1); i <= 5; i++ {
		items = append(items, rankedItem(i, 1.0, "genre:Action"))
	}
	n := &EnsembleNode{
		Scores:  &stubScores{scores: map[int64]float64{1: 1, 2: 1, 3: 1, 4: 1, 5: 1}},
		Weights: &stubWeights{w: core.Weights{GenreMatch: 5, RatingQuality: 5}},
		Limit:   3,
	}

	out, err := n.Process(context.Background(), &core.RecommendContext{UserID: "u"}, items)
	if err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("应截断到 Limit=3，实际 %d", len(out))
	}
	for _, it := range out {
		if it.Score > 1 {
			t.Fatalf("融合分应被钳制到 1，实际 %f", it.Score)
		}
	}
}
