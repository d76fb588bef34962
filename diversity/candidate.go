// Package diversity 是一个无状态的多样性算法库：MMR、DPP 式贪心选择、
// 类型均衡、epsilon-greedy 探索、惊喜注入与多样性指标计算。
//
// 设计要点：
//   - 纯函数：每次调用只依赖输入与显式注入的随机源，便于确定性测试
//   - 不持有进程级单例：Engine 由调用方构造并按引用传递，
//     隔离配置、允许并行测试
//   - 与推荐主链路解耦：输入是轻量的 Candidate，任何推荐面都可以复用
package diversity

import "math"

// Candidate 是算法库的通用输入。
type Candidate struct {
	ID        string
	TMDBID    int64
	MediaType string
	Score     float64
	Genres    []string
	Embedding []float64
}

// Metric 指定主算法。
type Metric string

const (
	MetricMMR    Metric = "mmr"
	MetricDPP    Metric = "dpp"
	MetricHybrid Metric = "hybrid" // 先全量 MMR，再对 Top30 做 DPP
)

// Config 是单次调用的值对象，从不持久化。
type Config struct {
	// Lambda ∈ [0,1]：MMR 的相关性权重；1 退化为纯相关性排序
	Lambda float64

	// EpsilonExploration ∈ [0,1]：探索项占比
	EpsilonExploration float64

	// MaxConsecutiveSameGenre：同类连排的容忍长度，超出部分被降权
	MaxConsecutiveSameGenre int

	// SerendipityRate ∈ [0,1]：惊喜项占比
	SerendipityRate float64

	// Metric：主算法（mmr / dpp / hybrid）
	Metric Metric
}

// DefaultConfig 返回线上默认配置。
func DefaultConfig() Config {
	return Config{
		Lambda:                  0.7,
		EpsilonExploration:      0.1,
		MaxConsecutiveSameGenre: 3,
		SerendipityRate:         0.1,
		Metric:                  MetricMMR,
	}
}

// Metrics 是一组多样性监控指标。
type Metrics struct {
	IntraDiversity   float64 // 平均两两类型差异度
	GenreBalance     float64 // 类型分布的 Shannon 熵
	SerendipityScore float64 // 与用户偏好零重叠的条目占比
	ExplorationRate  float64 // 探索项占比（由调用方按配置填入）
	CoverageScore    float64 // 相对用户偏好集的类型覆盖率，封顶 1
}

// PrimaryGenre 返回首个类型；类型均衡以它作为运行长度的判定键。
func (c Candidate) PrimaryGenre() string {
	if len(c.Genres) == 0 {
		return ""
	}
	return c.Genres[0]
}

// Similarity 计算两个候选的相似度：双方都有 embedding 时用余弦，
// 否则退化为类型集合的 Jaccard 重叠。两个空集合视为 0（无信息即不相似）。
func Similarity(a, b Candidate) float64 {
	if len(a.Embedding) > 0 && len(b.Embedding) > 0 {
		return cosine(a.Embedding, b.Embedding)
	}
	return jaccard(a.Genres, b.Genres)
}

// GenreSimilarity 只看类型集合的 Jaccard 重叠（DPP 核矩阵与指标计算用）。
func GenreSimilarity(a, b Candidate) float64 {
	return jaccard(a.Genres, b.Genres)
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, g := range a {
		setA[g] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, g := range b {
		setB[g] = struct{}{}
	}
	intersection := 0
	for g := range setA {
		if _, ok := setB[g]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
