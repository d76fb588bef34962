package diversity

import (
	"math"
	"math/rand"
	"sort"
)

// Explorer 实现 epsilon-greedy 探索：保留序列的前 n−floor(n·ε) 个作为利用项，
// 从候选池分位线之后随机抽样探索项，按等间隔穿插进利用序列，多出的探索项追加在尾部。
//
// 随机源显式注入，便于确定性测试；生产代码传入真实熵源。
type Explorer struct {
	// Epsilon ∈ [0,1]：探索项占比
	Epsilon float64

	// PercentileCutoff ∈ (0,1)：探索池从该分位之后取（默认 0.3，
	// 即跳过池子头部 30% 的高分项，抽“还不错但没排上”的部分）
	PercentileCutoff float64

	// Rand 是注入的随机源，不可为 nil
	Rand *rand.Rand
}

func (x *Explorer) cutoff() float64 {
	if x.PercentileCutoff <= 0 || x.PercentileCutoff >= 1 {
		return 0.3
	}
	return x.PercentileCutoff
}

// Explore 对 seq 做探索注入；pool 是完整候选池（按原始排序分降序衡量分位）。
func (x *Explorer) Explore(seq []Candidate, pool []Candidate) []Candidate {
	if len(seq) == 0 || x.Epsilon <= 0 || x.Rand == nil {
		return seq
	}

	explorationCount := int(math.Floor(float64(len(seq)) * x.Epsilon))
	if explorationCount <= 0 {
		return seq
	}

	exploration := x.sampleExploration(seq, pool, explorationCount)
	if len(exploration) == 0 {
		return seq
	}

	exploitation := seq[:len(seq)-explorationCount]
	return interleave(exploitation, exploration)
}

// sampleExploration 从 pool 分位线之后随机抽样，跳过已在 seq 中的条目。
func (x *Explorer) sampleExploration(seq, pool []Candidate, count int) []Candidate {
	inSeq := make(map[string]struct{}, len(seq))
	for _, c := range seq {
		inSeq[c.ID] = struct{}{}
	}

	ranked := make([]Candidate, len(pool))
	copy(ranked, pool)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	start := int(float64(len(ranked)) * x.cutoff())
	eligible := make([]Candidate, 0, len(ranked)-start)
	for _, c := range ranked[start:] {
		if _, ok := inSeq[c.ID]; ok {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return nil
	}

	x.Rand.Shuffle(len(eligible), func(i, j int) {
		eligible[i], eligible[j] = eligible[j], eligible[i]
	})
	if count > len(eligible) {
		count = len(eligible)
	}
	return eligible[:count]
}

// interleave 把 injected 按等间隔穿插进 base，余下的追加在尾部。
func interleave(base, injected []Candidate) []Candidate {
	if len(injected) == 0 {
		return base
	}
	if len(base) == 0 {
		return injected
	}

	interval := len(base) / len(injected)
	if interval < 1 {
		interval = 1
	}

	out := make([]Candidate, 0, len(base)+len(injected))
	next := 0
	for i, c := range base {
		out = append(out, c)
		// 每 interval 个利用项后插一个注入项
		if (i+1)%interval == 0 && next < len(injected) {
			out = append(out, injected[next])
			next++
		}
	}
	for ; next < len(injected); next++ {
		out = append(out, injected[next])
	}
	return out
}
