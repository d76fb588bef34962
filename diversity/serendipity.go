package diversity

import (
	"math"
	"sort"
)

// SerendipityInjector 实现惊喜注入：与用户已知偏好的类型重叠 ≤1 的候选
// 视为“有惊喜感”，全序列里按分数取前 rate·n 个，从主序列中摘出后
// 按等间隔重新穿插，让惊喜项分散而不是沉在尾部。
type SerendipityInjector struct {
	// Rate ∈ [0,1]：惊喜项占比
	Rate float64
}

// maxPrefOverlap 是“有惊喜感”的类型重叠上限。
const maxPrefOverlap = 1

// Inject 对 seq 做惊喜重排；prefs 是用户的已知偏好类型，为空时原样返回。
func (s *SerendipityInjector) Inject(seq []Candidate, prefs []string) []Candidate {
	if len(seq) == 0 || s.Rate <= 0 || len(prefs) == 0 {
		return seq
	}

	quota := int(math.Floor(float64(len(seq)) * s.Rate))
	if quota <= 0 {
		return seq
	}

	prefSet := make(map[string]struct{}, len(prefs))
	for _, g := range prefs {
		prefSet[g] = struct{}{}
	}

	// 找出全部惊喜项，按分数取前 quota 个。
	// seq 可能已被探索穿插打乱顺序，不能按出现顺序提前截断。
	surprising := make([]int, 0)
	for i, c := range seq {
		if prefOverlap(c, prefSet) <= maxPrefOverlap {
			surprising = append(surprising, i)
		}
	}
	if len(surprising) == 0 {
		return seq
	}
	sort.SliceStable(surprising, func(a, b int) bool {
		return seq[surprising[a]].Score > seq[surprising[b]].Score
	})
	if len(surprising) > quota {
		surprising = surprising[:quota]
	}

	picked := make(map[int]struct{}, len(surprising))
	for _, i := range surprising {
		picked[i] = struct{}{}
	}

	main := make([]Candidate, 0, len(seq)-len(surprising))
	for i, c := range seq {
		if _, ok := picked[i]; !ok {
			main = append(main, c)
		}
	}
	injected := make([]Candidate, 0, len(surprising))
	for _, i := range surprising {
		injected = append(injected, seq[i])
	}

	return interleave(main, injected)
}

func prefOverlap(c Candidate, prefSet map[string]struct{}) int {
	n := 0
	for _, g := range c.Genres {
		if _, ok := prefSet[g]; ok {
			n++
		}
	}
	return n
}
