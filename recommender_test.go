package reelkit

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/diversity"
	"github.com/reelkit/reelkit/store"
)

// fakeCatalog 用固定条目模拟内容目录与元数据服务。
type fakeCatalog struct {
	entries []core.CatalogEntry
	genres  map[int64][]string
}

func newFakeCatalog() *fakeCatalog {
	names := map[int64]string{28: "Action", 18: "Drama", 35: "Comedy", 27: "Horror", 878: "Science Fiction"}
	ids := []int64{28, 18, 35, 27, 878}
	c := &fakeCatalog{genres: make(map[int64][]string)}
	for i := 0; i < 60; i++ {
		id := int64(1000 + i)
		gid := ids[i%len(ids)]
		c.entries = append(c.entries, core.CatalogEntry{
			TMDBID:      id,
			MediaType:   core.MediaTypeMovie,
			Title:       names[gid],
			VoteAverage: 6.0 + float64(i%40)*0.1,
			VoteCount:   500,
			GenreIDs:    []int64{gid},
		})
		c.genres[id] = []string{names[gid]}
	}
	return c
}

func (c *fakeCatalog) page(all []core.CatalogEntry, page int) []core.CatalogEntry {
	const size = 20
	start := (page - 1) * size
	if start >= len(all) {
		return nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func (c *fakeCatalog) DiscoverByGenre(_ context.Context, genreID int64, page int, _ int) ([]core.CatalogEntry, error) {
	var matched []core.CatalogEntry
	for _, e := range c.entries {
		if len(e.GenreIDs) > 0 && e.GenreIDs[0] == genreID {
			matched = append(matched, e)
		}
	}
	return c.page(matched, page), nil
}

func (c *fakeCatalog) Trending(_ context.Context, page int) ([]core.CatalogEntry, error) {
	return c.page(c.entries, page), nil
}

func (c *fakeCatalog) TopRated(_ context.Context, page int) ([]core.CatalogEntry, error) {
	return c.page(c.entries, page), nil
}

func (c *fakeCatalog) BatchMetadata(_ context.Context, refs []core.ItemRef) (map[string]core.ItemMetadata, error) {
	out := make(map[string]core.ItemMetadata, len(refs))
	for _, ref := range refs {
		if g, ok := c.genres[ref.TMDBID]; ok {
			out[ref.Key()] = core.ItemMetadata{Genres: g, VoteAverage: 7.5}
		}
	}
	return out, nil
}

func newTestRecommender(t *testing.T) (*Recommender, *store.RatingAdapter) {
	t.Helper()
	ms := store.NewMemoryStore()
	t.Cleanup(func() { _ = ms.Close() })
	ratings := store.NewRatingAdapter(ms, "test")
	catalog := newFakeCatalog()
	r := &Recommender{
		Catalog:  catalog,
		Metadata: catalog,
		Ratings:  ratings,
		Metrics:  ratings,
		Engine:   diversity.New(rand.New(rand.NewSource(1))),
	}
	return r, ratings
}

func TestRecommender_EmptyUserID(t *testing.T) {
	r, _ := newTestRecommender(t)
	if _, err := r.GetRecommendations(context.Background(), "", Options{}); !errors.Is(err, core.ErrInvalidUser) {
		t.Fatalf("空 userID 期望 ErrInvalidUser，实际 %v", err)
	}
}

func TestRecommender_EndToEnd(t *testing.T) {
	r, ratings := newTestRecommender(t)
	ctx := context.Background()

	// 给用户一些动作片高分，画像应带动类型召回
	for i, id := range []int64{1000, 1005, 1010} {
		err := ratings.RecordRating(ctx, core.Rating{
			UserID:    "alice",
			TMDBID:    id,
			MediaType: core.MediaTypeMovie,
			Rating:    9,
			RatedAt:   time.Now().Add(-time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("RecordRating 失败: %v", err)
		}
	}

	out, err := r.GetRecommendations(ctx, "alice", Options{FinalLimit: 10})
	if err != nil {
		t.Fatalf("GetRecommendations 失败: %v", err)
	}
	if len(out) == 0 || len(out) > 10 {
		t.Fatalf("输出条数应在 (0,10]，实际 %d", len(out))
	}

	rated := map[int64]struct{}{1000: {}, 1005: {}, 1010: {}}
	seen := make(map[string]struct{})
	for _, it := range out {
		if _, ok := rated[it.TMDBID]; ok {
			t.Fatalf("已评分条目 %d 不应出现在推荐里", it.TMDBID)
		}
		if _, dup := seen[it.Key()]; dup {
			t.Fatalf("输出含重复条目 %s", it.Key())
		}
		seen[it.Key()] = struct{}{}
		if it.Score < 0 || it.Score > 1 {
			t.Fatalf("条目 %d 的分数越界: %.3f", it.TMDBID, it.Score)
		}
		if it.Labels["reason"].Value == "" {
			t.Fatalf("条目 %d 缺少推荐理由", it.TMDBID)
		}
	}

	// ML 打分方缺席时精排回退到召回分
	if _, ok := out[0].Features[core.FeatureMLScore]; !ok {
		t.Fatal("精排应写入 ml_score 特征（回退值）")
	}
}

func TestRecommender_ColdStartUser(t *testing.T) {
	// 无任何评分的用户仍应通过趋势/高分榜拿到推荐
	r, _ := newTestRecommender(t)

	out, err := r.GetRecommendations(context.Background(), "stranger", Options{FinalLimit: 5})
	if err != nil {
		t.Fatalf("GetRecommendations 失败: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("冷启动用户不应得到空结果")
	}
}

func TestRecommender_Timeout(t *testing.T) {
	r, _ := newTestRecommender(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.GetRecommendations(ctx, "alice", Options{}); err == nil {
		t.Fatal("已取消的 ctx 应使链路失败")
	}
}

func TestOptions_Defaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.CandidateCount != 2000 || o.RankingLimit != 200 || o.FinalLimit != 50 {
		t.Fatalf("默认规模不符: %+v", o)
	}
	if o.Diversity.Lambda != diversity.DefaultConfig().Lambda {
		t.Fatalf("零值多样性配置应取默认值: %+v", o.Diversity)
	}

	custom := Options{FinalLimit: 7}.withDefaults()
	if custom.FinalLimit != 7 || custom.CandidateCount != 2000 {
		t.Fatalf("显式字段应保留: %+v", custom)
	}
}
