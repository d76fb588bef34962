package core

import "context"

// 本文件定义推荐核心依赖的全部外部协作方接口。
//
// 设计原则（与 Store 一致）：
//   - 接口定义在领域层（core），由基础设施层（service / feast / store）实现
//   - 遵循依赖倒置：各 Node 只持有接口引用，启动时一次性注入
//   - 任何协作方都可能部分或整体失败，Node 必须就地降级而不是向上抛

// CatalogEntry 是内容目录（发现/趋势/高分榜）返回的单个条目。
type CatalogEntry struct {
	TMDBID      int64
	MediaType   string
	Title       string
	PosterPath  string
	VoteAverage float64
	VoteCount   int
	GenreIDs    []int64
	Popularity  float64
}

// CatalogService 是分页内容目录的领域接口（TMDB 风格的发现接口）。
// page 从 1 开始；任何一页失败只影响该页，调用方自行合并其余页。
type CatalogService interface {
	// DiscoverByGenre 按类型 ID 分页发现内容，minVoteCount 过滤冷门条目
	DiscoverByGenre(ctx context.Context, genreID int64, page int, minVoteCount int) ([]CatalogEntry, error)

	// Trending 全局趋势榜
	Trending(ctx context.Context, page int) ([]CatalogEntry, error)

	// TopRated 全局高分榜
	TopRated(ctx context.Context, page int) ([]CatalogEntry, error)
}

// ItemRef 标识一次批量元数据查询中的单个条目。
type ItemRef struct {
	TMDBID     int64  `json:"tmdb_id"`
	MediaType  string `json:"media_type"`
	Title      string `json:"title,omitempty"`
	PosterPath string `json:"poster_path,omitempty"`
}

// Key 返回与 Item.Key 一致的标识。
func (r ItemRef) Key() string { return ItemKey(r.TMDBID, r.MediaType) }

// ItemMetadata 是批量元数据查询的单条结果；字段缺失时调用方用安全默认值兜底。
type ItemMetadata struct {
	Genres      []string `json:"genres"`
	VoteAverage float64  `json:"vote_average"`
	ReleaseDate string   `json:"release_date"`
	Overview    string   `json:"overview"`
	Runtime     int      `json:"runtime"`
	PosterPath  string   `json:"poster_path"`
}

// MetadataService 是元数据服务的领域接口。
// 约定只走批量：一次 BatchMetadata 覆盖整批条目，禁止逐条调用。
// 返回 map 以 ItemKey 为 key；缺失的条目不在 map 中出现。
type MetadataService interface {
	BatchMetadata(ctx context.Context, refs []ItemRef) (map[string]ItemMetadata, error)
}

// ScoreService 是外部 ML 打分服务的领域接口。
// 单次调用可能失败；精排层对单条失败的约定是回退到该候选的 BaseScore，
// 绝不因个别失败中断整批排序。
type ScoreService interface {
	// PredictScore 返回 [0,1] 的相关性分
	PredictScore(ctx context.Context, userID string, tmdbID int64, mediaType string) (float64, error)

	// Health 健康检查
	Health(ctx context.Context) error

	// Close 关闭连接
	Close() error
}

// Weights 是动态权重协作方下发的自适应权重乘子。
type Weights struct {
	GenreMatch    float64
	RatingQuality float64
}

// DefaultWeights 是权重服务不可用时的固定兜底值。
func DefaultWeights() Weights {
	return Weights{GenreMatch: 1.0, RatingQuality: 1.0}
}

// WeightService 是自适应权重的领域接口（生产上由 Feast 在线特征实现）。
type WeightService interface {
	AdaptiveWeights(ctx context.Context, userID string) (Weights, error)
}
