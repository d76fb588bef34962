package core

import (
	"context"
	"time"
)

// Rating 是一条用户评分记录，满分 10 分。
type Rating struct {
	UserID    string    `json:"user_id"`
	TMDBID    int64     `json:"tmdb_id"`
	MediaType string    `json:"media_type"`
	Rating    float64   `json:"rating"`
	RatedAt   time.Time `json:"rated_at"`
}

// Key 返回与 Item.Key 一致的标识。
func (r Rating) Key() string { return ItemKey(r.TMDBID, r.MediaType) }

// RatingStore 是用户行为数据的领域接口：评分历史、想看清单，
// 以及协同过滤所需的全局最近评分窗口。
type RatingStore interface {
	// GetUserRatings 返回用户全部评分，按评分时间降序
	GetUserRatings(ctx context.Context, userID string) ([]Rating, error)

	// GetWatchlist 返回用户的想看清单
	GetWatchlist(ctx context.Context, userID string) ([]ItemRef, error)

	// GetRecentRatings 返回全局最近的至多 limit 条评分（所有用户）。
	// limit 是协同过滤的内存与算力安全上限，实现方不得返回超过 limit 的行数。
	GetRecentRatings(ctx context.Context, limit int) ([]Rating, error)
}

// DiversityMetrics 是重排阶段落盘的多样性监控指标行。
// 只用于监控看板，写入是尽力而为：失败记录日志后忽略，不影响推荐结果。
type DiversityMetrics struct {
	UserID           string    `json:"user_id"`
	IntraDiversity   float64   `json:"intra_diversity"`
	GenreBalance     float64   `json:"genre_balance"`
	SerendipityScore float64   `json:"serendipity_score"`
	ExplorationRate  float64   `json:"exploration_rate"`
	CoverageScore    float64   `json:"coverage_score"`
	ItemCount        int       `json:"item_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// MetricsStore 是多样性指标的写入接口，独立 insert，无读改写竞争，也无重试要求。
type MetricsStore interface {
	InsertDiversityMetrics(ctx context.Context, m DiversityMetrics) error
}
