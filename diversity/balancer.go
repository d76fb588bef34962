package diversity

import (
	"math"
	"sort"
)

// GenreBalancer 做类型均衡：顺序扫描序列，统计同一主类型的连续长度，
// 超出 MaxConsecutive 的条目按 Penalty 降权，然后整体重排。
type GenreBalancer struct {
	// MaxConsecutive 同类连排的容忍长度，<=0 时取 3
	MaxConsecutive int

	// Penalty 降权系数，(0,1)；默认 0.8
	Penalty float64
}

func (b *GenreBalancer) maxConsecutive() int {
	if b.MaxConsecutive <= 0 {
		return 3
	}
	return b.MaxConsecutive
}

func (b *GenreBalancer) penalty() float64 {
	if b.Penalty <= 0 || b.Penalty >= 1 {
		return 0.8
	}
	return b.Penalty
}

// Balance 返回降权重排后的新序列，不修改输入。
func (b *GenreBalancer) Balance(cands []Candidate) []Candidate {
	if len(cands) == 0 {
		return nil
	}

	out := make([]Candidate, len(cands))
	copy(out, cands)

	maxRun := b.maxConsecutive()
	penalty := b.penalty()

	run := 0
	prev := ""
	for i := range out {
		g := out[i].PrimaryGenre()
		if g != "" && g == prev {
			run++
		} else {
			run = 1
			prev = g
		}
		if run > maxRun {
			out[i].Score *= penalty
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// GenreDiversity 计算类型频次分布的 Shannon 熵：
// 单一类型集合为 0，类型越多、分布越均匀值越大。
func GenreDiversity(cands []Candidate) float64 {
	counts := make(map[string]int)
	total := 0
	for _, c := range cands {
		for _, g := range c.Genres {
			counts[g]++
			total++
		}
	}
	if total == 0 || len(counts) <= 1 {
		return 0
	}
	var entropy float64
	for _, n := range counts {
		p := float64(n) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}
