package recall

// DefaultGenreIDs 是 TMDB 电影类型名到类型 ID 的内置映射。
// 画像中的类型名来自元数据服务，与这里的名称保持一致。
var DefaultGenreIDs = map[string]int64{
	"Action":          28,
	"Adventure":       12,
	"Animation":       16,
	"Comedy":          35,
	"Crime":           80,
	"Documentary":     99,
	"Drama":           18,
	"Family":          10751,
	"Fantasy":         14,
	"History":         36,
	"Horror":          27,
	"Music":           10402,
	"Mystery":         9648,
	"Romance":         10749,
	"Science Fiction": 878,
	"TV Movie":        10770,
	"Thriller":        53,
	"War":             10752,
	"Western":         37,
}
