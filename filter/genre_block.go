package filter

import (
	"context"
	"strings"

	"github.com/reelkit/reelkit/core"
)

// GenreBlockFilter 按类型黑名单剔除候选，类型名不区分大小写。
// 召回阶段未带类型的候选（Genres 为空）一律保留，元数据缺失不应误杀。
type GenreBlockFilter struct {
	Genres []string

	blocked map[string]struct{}
}

func NewGenreBlockFilter(genres []string) *GenreBlockFilter {
	f := &GenreBlockFilter{Genres: genres}
	f.blocked = make(map[string]struct{}, len(genres))
	for _, g := range genres {
		f.blocked[strings.ToLower(g)] = struct{}{}
	}
	return f
}

func (f *GenreBlockFilter) Name() string { return "filter.genre_block" }

func (f *GenreBlockFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if len(f.blocked) == 0 {
		return false, nil
	}
	for _, g := range item.Genres {
		if _, ok := f.blocked[strings.ToLower(g)]; ok {
			return true, nil
		}
	}
	return false, nil
}

// MediaTypeFilter 只保留指定媒体类型的候选，Types 为空时直通。
type MediaTypeFilter struct {
	Types []string
}

func (f *MediaTypeFilter) Name() string { return "filter.media_type" }

func (f *MediaTypeFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if len(f.Types) == 0 {
		return false, nil
	}
	for _, t := range f.Types {
		if item.MediaType == t {
			return false, nil
		}
	}
	return true, nil
}

var (
	_ Filter = (*GenreBlockFilter)(nil)
	_ Filter = (*MediaTypeFilter)(nil)
)
