// Package profile 负责从评分历史构建请求级用户画像，并提供可选的 TTL 缓存。
package profile

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/reelkit/reelkit/core"
)

// Builder 从评分历史聚合用户画像：
//   - 常看类型：按 Σ(rating/10) 加权，降序取前 MaxFavoriteGenres 个
//   - 近期类型：最近 RecentWindow 条评分触达的类型集合
//   - 历史均分：无评分时取冷启动均分
//
// 类型信息通过一次 BatchMetadata 批量回填，禁止逐条查询。
type Builder struct {
	Ratings  core.RatingStore
	Metadata core.MetadataService

	// Cache 为可选的画像缓存，nil 时每次请求重建。
	Cache *Cache

	// MaxFavoriteGenres <=0 时取 5。
	MaxFavoriteGenres int
	// RecentWindow <=0 时取 10。
	RecentWindow int
}

func (b *Builder) maxFavorites() int {
	if b.MaxFavoriteGenres <= 0 {
		return 5
	}
	return b.MaxFavoriteGenres
}

func (b *Builder) recentWindow() int {
	if b.RecentWindow <= 0 {
		return 10
	}
	return b.RecentWindow
}

// Build 构建用户画像。评分历史为空时返回仅含冷启动均分的空画像；
// 元数据整体失败时降级为无类型画像，均分与评分数仍然有效。
func (b *Builder) Build(ctx context.Context, userID string) (*core.UserContext, error) {
	if userID == "" {
		return nil, core.ErrInvalidUser
	}

	if b.Cache != nil {
		if u, ok := b.Cache.Get(userID); ok {
			return u, nil
		}
	}

	u := core.NewUserContext(userID)
	ratings, err := b.Ratings.GetUserRatings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return u, nil
	}

	u.TotalRatings = len(ratings)
	sum := 0.0
	for _, r := range ratings {
		sum += r.Rating
	}
	u.AverageRating = sum / float64(len(ratings))

	genres := b.fetchGenres(ctx, ratings)

	// 常看类型：rating/10 加权，权重降序，同权按名称升序保证稳定。
	weight := make(map[string]float64)
	for _, r := range ratings {
		for _, g := range genres[r.Key()] {
			weight[g] += r.Rating / 10.0
		}
	}
	names := make([]string, 0, len(weight))
	for g := range weight {
		names = append(names, g)
	}
	sort.Slice(names, func(i, j int) bool {
		wi, wj := weight[names[i]], weight[names[j]]
		if math.Abs(wi-wj) > 1e-9 {
			return wi > wj
		}
		return names[i] < names[j]
	})
	if len(names) > b.maxFavorites() {
		names = names[:b.maxFavorites()]
	}
	u.FavoriteGenres = names

	// 近期类型：GetUserRatings 约定按时间降序，直接取头部窗口。
	recent := ratings
	if len(recent) > b.recentWindow() {
		recent = recent[:b.recentWindow()]
	}
	for _, r := range recent {
		for _, g := range genres[r.Key()] {
			u.RecentGenres[g] = struct{}{}
		}
	}

	u.BuiltAt = time.Now()
	if b.Cache != nil {
		b.Cache.Set(userID, u, 0)
	}
	return u, nil
}

// fetchGenres 一次批量查询所有评分条目的类型，失败时返回空映射。
func (b *Builder) fetchGenres(ctx context.Context, ratings []core.Rating) map[string][]string {
	out := make(map[string][]string, len(ratings))
	if b.Metadata == nil {
		return out
	}
	refs := make([]core.ItemRef, 0, len(ratings))
	dedup := make(map[string]struct{}, len(ratings))
	for _, r := range ratings {
		if _, ok := dedup[r.Key()]; ok {
			continue
		}
		dedup[r.Key()] = struct{}{}
		refs = append(refs, core.ItemRef{TMDBID: r.TMDBID, MediaType: r.MediaType})
	}
	meta, err := b.Metadata.BatchMetadata(ctx, refs)
	if err != nil {
		return out
	}
	for key, m := range meta {
		out[key] = m.Genres
	}
	return out
}
