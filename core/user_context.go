package core

import "time"

// DefaultAverageRating 是无评分用户的冷启动均分。
// 取 7.0 而不是 0，避免质量过滤把新用户的候选全部压低。
const DefaultAverageRating = 7.0

// UserContext 是一次推荐请求的用户画像：由评分历史与偏好聚合而来，
// 驱动召回（类型召回取 TopN 常看类型）与排序（质量权重）。
//
// 画像每次请求重建，不跨请求共享；如需缓存请使用 profile.Cache
// 并在新评分写入时显式失效。
type UserContext struct {
	UserID string

	// FavoriteGenres 按加权频次降序，最多 5 个。
	// 权重 = Σ(rating/10)，即高分片贡献更大。
	FavoriteGenres []string

	// RecentGenres 是最近 10 条评分触达的类型集合，供惊喜注入判断“新鲜感”。
	RecentGenres map[string]struct{}

	// AverageRating 为用户历史均分；无评分时为 DefaultAverageRating。
	AverageRating float64
	TotalRatings  int

	BuiltAt time.Time
}

func NewUserContext(userID string) *UserContext {
	return &UserContext{
		UserID:        userID,
		RecentGenres:  make(map[string]struct{}),
		AverageRating: DefaultAverageRating,
		BuiltAt:       time.Now(),
	}
}

// HasRecentGenre 判断类型是否出现在近期评分里。
func (u *UserContext) HasRecentGenre(genre string) bool {
	if u == nil || u.RecentGenres == nil {
		return false
	}
	_, ok := u.RecentGenres[genre]
	return ok
}

// GenreOverlap 返回 genres 与常看类型的交集大小。
func (u *UserContext) GenreOverlap(genres []string) int {
	if u == nil || len(u.FavoriteGenres) == 0 {
		return 0
	}
	fav := make(map[string]struct{}, len(u.FavoriteGenres))
	for _, g := range u.FavoriteGenres {
		fav[g] = struct{}{}
	}
	n := 0
	for _, g := range genres {
		if _, ok := fav[g]; ok {
			n++
		}
	}
	return n
}

// TopGenres 返回前 n 个常看类型；不足 n 个时返回全部。
func (u *UserContext) TopGenres(n int) []string {
	if u == nil || len(u.FavoriteGenres) == 0 {
		return nil
	}
	if n <= 0 || n > len(u.FavoriteGenres) {
		n = len(u.FavoriteGenres)
	}
	return u.FavoriteGenres[:n]
}
