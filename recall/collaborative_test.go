package recall

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/reelkit/reelkit/core"
)

// stubRatingStore 是内存评分桩。
type stubRatingStore struct {
	byUser map[string][]core.Rating
	recent []core.Rating
}

func (s *stubRatingStore) GetUserRatings(_ context.Context, userID string) ([]core.Rating, error) {
	return s.byUser[userID], nil
}

func (s *stubRatingStore) GetWatchlist(_ context.Context, _ string) ([]core.ItemRef, error) {
	return nil, nil
}

func (s *stubRatingStore) GetRecentRatings(_ context.Context, limit int) ([]core.Rating, error) {
	if limit > 0 && len(s.recent) > limit {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

func rating(userID string, tmdbID int64, score float64) core.Rating {
	return core.Rating{
		UserID:    userID,
		TMDBID:    tmdbID,
		MediaType: core.MediaTypeMovie,
		Rating:    score,
		RatedAt:   time.Now(),
	}
}

func TestCosineOverlap(t *testing.T) {
	tests := []struct {
		name      string
		a, b      map[string]float64
		minCommon int
		want      float64
	}{
		{
			name:      "完全一致",
			a:         map[string]float64{"m1": 8, "m2": 9},
			b:         map[string]float64{"m1": 8, "m2": 9},
			minCommon: 2,
			want:      1,
		},
		{
			name:      "交集不足",
			a:         map[string]float64{"m1": 8},
			b:         map[string]float64{"m1": 8},
			minCommon: 2,
			want:      0,
		},
		{
			name:      "无交集",
			a:         map[string]float64{"m1": 8},
			b:         map[string]float64{"m2": 8},
			minCommon: 1,
			want:      0,
		},
		{
			name:      "零模向量",
			a:         map[string]float64{"m1": 0, "m2": 0},
			b:         map[string]float64{"m1": 8, "m2": 9},
			minCommon: 2,
			want:      0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineOverlap(tt.a, tt.b, tt.minCommon)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("期望 %f，实际 %f", tt.want, got)
			}
		})
	}
}

func TestCollaborativeSource_Recall(t *testing.T) {
	// alice 与 bob 共同高分 2 部；bob 另外喜欢 300，应该成为候选。
	// carol 与 alice 无共同评分，她喜欢的 400 不应出现。
	store := &stubRatingStore{
		byUser: map[string][]core.Rating{
			"alice": {rating("alice", 100, 9), rating("alice", 200, 8)},
		},
		recent: []core.Rating{
			rating("bob", 100, 8),
			rating("bob", 200, 9),
			rating("bob", 300, 9),
			rating("carol", 400, 10),
		},
	}

	src := &CollaborativeSource{Ratings: store}
	out, err := src.Recall(context.Background(), &core.RecommendContext{UserID: "alice"}, 50)
	if err != nil {
		t.Fatalf("Recall 失败: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("期望 1 个候选，实际 %d", len(out))
	}
	if out[0].TMDBID != 300 {
		t.Fatalf("候选应为 300，实际 %d", out[0].TMDBID)
	}
	if out[0].BaseScore != 0.7 {
		t.Fatalf("协同候选 BaseScore 应为 0.7，实际 %f", out[0].BaseScore)
	}
	if out[0].RecallSource() != "collaborative" {
		t.Fatalf("召回来源应为 collaborative，实际 %q", out[0].RecallSource())
	}
}

func TestCollaborativeSource_SkipsSeenAndLowScores(t *testing.T) {
	store := &stubRatingStore{
		byUser: map[string][]core.Rating{
			"alice": {rating("alice", 100, 9), rating("alice", 200, 8)},
		},
		recent: []core.Rating{
			rating("bob", 100, 8),
			rating("bob", 200, 9),
			rating("bob", 100, 9), // 已看过，跳过
			rating("bob", 500, 6), // 低于喜欢阈值，跳过
		},
	}

	src := &CollaborativeSource{Ratings: store}
	out, err := src.Recall(context.Background(), &core.RecommendContext{UserID: "alice"}, 50)
	if err != nil {
		t.Fatalf("Recall 失败: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("不应产出候选，实际 %d 个", len(out))
	}
}

func TestCollaborativeSource_NoRatingsNoSignal(t *testing.T) {
	store := &stubRatingStore{byUser: map[string][]core.Rating{}}
	src := &CollaborativeSource{Ratings: store}

	out, err := src.Recall(context.Background(), &core.RecommendContext{UserID: "newbie"}, 50)
	if err != nil {
		t.Fatalf("无评分用户不应报错: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("无评分用户应返回空分支，实际 %d 个", len(out))
	}
}

func TestCollaborativeSource_LimitRespected(t *testing.T) {
	recent := []core.Rating{
		rating("bob", 100, 8),
		rating("bob", 200, 9),
	}
	for i := int64(300); i < 320; i++ {
		recent = append(recent, rating("bob", i, 9))
	}
	store := &stubRatingStore{
		byUser: map[string][]core.Rating{
			"alice": {rating("alice", 100, 9), rating("alice", 200, 8)},
		},
		recent: recent,
	}

	src := &CollaborativeSource{Ratings: store}
	out, err := src.Recall(context.Background(), &core.RecommendContext{UserID: "alice"}, 5)
	if err != nil {
		t.Fatalf("Recall 失败: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("应遵守配额 5，实际 %d", len(out))
	}
}
