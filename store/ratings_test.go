package store

import (
	"context"
	"testing"
	"time"

	"github.com/reelkit/reelkit/core"
)

func newTestAdapter(t *testing.T) *RatingAdapter {
	t.Helper()
	ms := NewMemoryStore()
	t.Cleanup(func() { _ = ms.Close() })
	return NewRatingAdapter(ms, "test")
}

func testRating(userID string, tmdbID int64, score float64, minutesAgo int) core.Rating {
	return core.Rating{
		UserID:    userID,
		TMDBID:    tmdbID,
		MediaType: core.MediaTypeMovie,
		Rating:    score,
		RatedAt:   time.Now().Add(-time.Duration(minutesAgo) * time.Minute),
	}
}

func TestRatingAdapter_RecordAndGet(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	if err := a.RecordRating(ctx, testRating("u1", 100, 8, 30)); err != nil {
		t.Fatalf("RecordRating 失败: %v", err)
	}
	if err := a.RecordRating(ctx, testRating("u1", 200, 9, 10)); err != nil {
		t.Fatalf("RecordRating 失败: %v", err)
	}
	if err := a.RecordRating(ctx, testRating("u2", 300, 7, 5)); err != nil {
		t.Fatalf("RecordRating 失败: %v", err)
	}

	ratings, err := a.GetUserRatings(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserRatings 失败: %v", err)
	}
	if len(ratings) != 2 {
		t.Fatalf("u1 期望 2 条评分，实际 %d", len(ratings))
	}
	if ratings[0].TMDBID != 200 {
		t.Fatalf("评分应按时间降序，头部期望 200，实际 %d", ratings[0].TMDBID)
	}
}

func TestRatingAdapter_ReplaceSameItem(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	if err := a.RecordRating(ctx, testRating("u1", 100, 6, 60)); err != nil {
		t.Fatalf("RecordRating 失败: %v", err)
	}
	if err := a.RecordRating(ctx, testRating("u1", 100, 9, 1)); err != nil {
		t.Fatalf("RecordRating 失败: %v", err)
	}

	ratings, err := a.GetUserRatings(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserRatings 失败: %v", err)
	}
	if len(ratings) != 1 {
		t.Fatalf("重复评分应覆盖旧值，实际 %d 条", len(ratings))
	}
	if ratings[0].Rating != 9 {
		t.Fatalf("应保留新评分 9，实际 %.1f", ratings[0].Rating)
	}
}

func TestRatingAdapter_RecentWindow(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		r := testRating("u1", int64(100+i), 8, 5-i)
		if err := a.RecordRating(ctx, r); err != nil {
			t.Fatalf("RecordRating 失败: %v", err)
		}
	}

	recent, err := a.GetRecentRatings(ctx, 3)
	if err != nil {
		t.Fatalf("GetRecentRatings 失败: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("limit 3 期望 3 条，实际 %d", len(recent))
	}
	if recent[0].TMDBID != 104 {
		t.Fatalf("最近窗口头部期望最新的 104，实际 %d", recent[0].TMDBID)
	}
}

func TestRatingAdapter_Watchlist(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	refs := []core.ItemRef{
		{TMDBID: 1, MediaType: core.MediaTypeMovie, Title: "一部电影"},
		{TMDBID: 2, MediaType: core.MediaTypeTV},
	}
	if err := a.SetWatchlist(ctx, "u1", refs); err != nil {
		t.Fatalf("SetWatchlist 失败: %v", err)
	}

	got, err := a.GetWatchlist(ctx, "u1")
	if err != nil {
		t.Fatalf("GetWatchlist 失败: %v", err)
	}
	if len(got) != 2 || got[0].Title != "一部电影" {
		t.Fatalf("想看清单不一致: %+v", got)
	}

	// 整体覆盖
	if err := a.SetWatchlist(ctx, "u1", refs[:1]); err != nil {
		t.Fatalf("SetWatchlist 失败: %v", err)
	}
	got, _ = a.GetWatchlist(ctx, "u1")
	if len(got) != 1 {
		t.Fatalf("覆盖后期望 1 条，实际 %d", len(got))
	}
}

func TestRatingAdapter_MissingKeys(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	ratings, err := a.GetUserRatings(ctx, "nobody")
	if err != nil {
		t.Fatalf("不存在的用户不应报错: %v", err)
	}
	if len(ratings) != 0 {
		t.Fatalf("期望空评分，实际 %d", len(ratings))
	}

	refs, err := a.GetWatchlist(ctx, "nobody")
	if err != nil || len(refs) != 0 {
		t.Fatalf("不存在的想看清单应为空: refs=%d err=%v", len(refs), err)
	}
}

func TestRatingAdapter_InsertDiversityMetrics(t *testing.T) {
	ms := NewMemoryStore()
	t.Cleanup(func() { _ = ms.Close() })
	a := NewRatingAdapter(ms, "test")
	ctx := context.Background()

	m := core.DiversityMetrics{
		UserID:         "u1",
		IntraDiversity: 0.6,
		ItemCount:      50,
		CreatedAt:      time.Unix(0, 12345),
	}
	if err := a.InsertDiversityMetrics(ctx, m); err != nil {
		t.Fatalf("InsertDiversityMetrics 失败: %v", err)
	}
	if _, err := ms.Get(ctx, "test:metrics:u1:12345"); err != nil {
		t.Fatalf("指标行未写入: %v", err)
	}

	// CreatedAt 为零值时自动填充，key 不冲突
	if err := a.InsertDiversityMetrics(ctx, core.DiversityMetrics{UserID: "u1"}); err != nil {
		t.Fatalf("InsertDiversityMetrics 失败: %v", err)
	}
}

func TestMemoryStore_NotFound(t *testing.T) {
	ms := NewMemoryStore()
	t.Cleanup(func() { _ = ms.Close() })

	if _, err := ms.Get(context.Background(), "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("缺失 key 期望 ErrStoreNotFound，实际 %v", err)
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	ms := NewMemoryStore()
	t.Cleanup(func() { _ = ms.Close() })
	ctx := context.Background()

	if err := ms.Set(ctx, "k", []byte("v"), 1); err != nil {
		t.Fatalf("Set 失败: %v", err)
	}
	if _, err := ms.Get(ctx, "k"); err != nil {
		t.Fatalf("过期前应可读: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := ms.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Fatalf("过期后期望 ErrStoreNotFound，实际 %v", err)
	}
}

func TestMemoryStore_ZSet(t *testing.T) {
	ms := NewMemoryStore()
	t.Cleanup(func() { _ = ms.Close() })
	ctx := context.Background()

	for member, score := range map[string]float64{"a": 1, "b": 3, "c": 2} {
		if err := ms.ZAdd(ctx, "rank", score, member); err != nil {
			t.Fatalf("ZAdd 失败: %v", err)
		}
	}

	got, err := ms.ZRange(ctx, "rank", 0, 1)
	if err != nil {
		t.Fatalf("ZRange 失败: %v", err)
	}
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("ZRange 应按分数降序，实际 %v", got)
	}

	score, err := ms.ZScore(ctx, "rank", "b")
	if err != nil || score != 3 {
		t.Fatalf("ZScore 期望 3，实际 %.1f err=%v", score, err)
	}
}
