package recall

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/reelkit/reelkit/core"
)

// stubCatalog 是内存目录桩。
type stubCatalog struct {
	mu       sync.Mutex
	byGenre  map[int64][]core.CatalogEntry
	trending []core.CatalogEntry
	topRated []core.CatalogEntry
	failPage int // 该页返回错误
}

func (s *stubCatalog) DiscoverByGenre(_ context.Context, genreID int64, page int, _ int) ([]core.CatalogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if page == s.failPage && s.failPage > 0 {
		return nil, errors.New("page unavailable")
	}
	if page > 1 {
		return nil, nil
	}
	return s.byGenre[genreID], nil
}

func (s *stubCatalog) Trending(_ context.Context, page int) ([]core.CatalogEntry, error) {
	if page == s.failPage && s.failPage > 0 {
		return nil, errors.New("page unavailable")
	}
	if page > 1 {
		return nil, nil
	}
	return s.trending, nil
}

func (s *stubCatalog) TopRated(_ context.Context, page int) ([]core.CatalogEntry, error) {
	if page > 1 {
		return nil, nil
	}
	return s.topRated, nil
}

func entry(tmdbID int64, title string) core.CatalogEntry {
	return core.CatalogEntry{
		TMDBID:      tmdbID,
		MediaType:   core.MediaTypeMovie,
		Title:       title,
		VoteAverage: 7.5,
		VoteCount:   500,
	}
}

func userWithGenres(genres ...string) *core.UserContext {
	u := core.NewUserContext("u")
	u.FavoriteGenres = genres
	return u
}

func TestGenreSource_Recall(t *testing.T) {
	catalog := &stubCatalog{
		byGenre: map[int64][]core.CatalogEntry{
			28: {entry(1, "Edge of the Grid")},
			18: {entry(2, "Last Harvest")},
		},
	}
	src := &GenreSource{
		Catalog:  catalog,
		GenreIDs: DefaultGenreIDs,
	}

	rctx := &core.RecommendContext{UserID: "u", User: userWithGenres("Action", "Drama")}
	out, err := src.Recall(context.Background(), rctx, 100)
	if err != nil {
		t.Fatalf("Recall 失败: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("期望 2 个候选，实际 %d", len(out))
	}

	for _, it := range out {
		if it.BaseScore != 0.8 {
			t.Fatalf("类型召回 BaseScore 应为 0.8，实际 %f", it.BaseScore)
		}
		if !it.FromGenreRecall() {
			t.Fatalf("候选 %d 应标记为类型召回，来源 %q", it.TMDBID, it.RecallSource())
		}
		if len(it.Genres) != 1 {
			t.Fatalf("类型召回候选应携带类型，实际 %v", it.Genres)
		}
	}
}

func TestGenreSource_ColdStartEmpty(t *testing.T) {
	src := &GenreSource{Catalog: &stubCatalog{}, GenreIDs: DefaultGenreIDs}

	// 画像为空或常看类型为空都走空分支
	rctxNoUser := &core.RecommendContext{UserID: "u"}
	if out, err := src.Recall(context.Background(), rctxNoUser, 100); err != nil || len(out) != 0 {
		t.Fatalf("无画像应返回空分支: out=%d err=%v", len(out), err)
	}

	rctxNoGenres := &core.RecommendContext{UserID: "u", User: core.NewUserContext("u")}
	if out, err := src.Recall(context.Background(), rctxNoGenres, 100); err != nil || len(out) != 0 {
		t.Fatalf("无常看类型应返回空分支: out=%d err=%v", len(out), err)
	}
}

func TestGenreSource_UnknownGenreSkipped(t *testing.T) {
	catalog := &stubCatalog{byGenre: map[int64][]core.CatalogEntry{28: {entry(1, "A")}}}
	src := &GenreSource{Catalog: catalog, GenreIDs: DefaultGenreIDs}

	rctx := &core.RecommendContext{UserID: "u", User: userWithGenres("Action", "Nosuch")}
	out, err := src.Recall(context.Background(), rctx, 100)
	if err != nil {
		t.Fatalf("Recall 失败: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("未知类型应被跳过，期望 1 个候选，实际 %d", len(out))
	}
}

func TestTrendingSource_PageFailureIsPartial(t *testing.T) {
	catalog := &stubCatalog{
		trending: []core.CatalogEntry{entry(1, "A"), entry(2, "B")},
		failPage: 2,
	}
	src := &TrendingSource{Catalog: catalog, Pages: 3}

	out, err := src.Recall(context.Background(), nil, 100)
	if err != nil {
		t.Fatalf("单页失败不应中断: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("应只损失失败页，实际 %d 个候选", len(out))
	}
	if out[0].RecallSource() != "trending" {
		t.Fatalf("召回来源应为 trending，实际 %q", out[0].RecallSource())
	}
	if out[0].BaseScore != 0.6 {
		t.Fatalf("趋势召回 BaseScore 应为 0.6，实际 %f", out[0].BaseScore)
	}
}

func TestTopRatedSource_Recall(t *testing.T) {
	catalog := &stubCatalog{topRated: []core.CatalogEntry{entry(9, "Classic")}}
	src := &TopRatedSource{Catalog: catalog}

	out, err := src.Recall(context.Background(), nil, 100)
	if err != nil {
		t.Fatalf("Recall 失败: %v", err)
	}
	if len(out) != 1 || out[0].BaseScore != 0.7 {
		t.Fatalf("高分榜召回 BaseScore 应为 0.7: %+v", out)
	}
	if out[0].RecallSource() != "top_rated" {
		t.Fatalf("召回来源应为 top_rated，实际 %q", out[0].RecallSource())
	}
}

func TestSourceNilCatalog(t *testing.T) {
	trending := &TrendingSource{}
	if out, err := trending.Recall(context.Background(), nil, 10); err != nil || out != nil {
		t.Fatalf("nil 目录应返回空分支: out=%v err=%v", out, err)
	}
	topRated := &TopRatedSource{}
	if out, err := topRated.Recall(context.Background(), nil, 10); err != nil || out != nil {
		t.Fatalf("nil 目录应返回空分支: out=%v err=%v", out, err)
	}
}
