package diversity

// MMR (Maximal Marginal Relevance) 贪心选择：以最高分候选起步，
// 每轮选出使 λ·score − (1−λ)·maxSimilarityToSelected 最大的剩余候选，
// 直到取满 limit 或候选耗尽。
//
// λ=1 时退化为纯相关性排序；λ=0 时只看与已选集合的差异度。
func MMR(cands []Candidate, lambda float64, limit int) []Candidate {
	if len(cands) == 0 || limit <= 0 {
		return nil
	}
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	if limit > len(cands) {
		limit = len(cands)
	}

	remaining := make([]Candidate, len(cands))
	copy(remaining, cands)

	// 种子：最高分候选
	seedIdx := 0
	for i := 1; i < len(remaining); i++ {
		if remaining[i].Score > remaining[seedIdx].Score {
			seedIdx = i
		}
	}
	selected := make([]Candidate, 0, limit)
	selected = append(selected, remaining[seedIdx])
	remaining = append(remaining[:seedIdx], remaining[seedIdx+1:]...)

	for len(selected) < limit && len(remaining) > 0 {
		bestIdx := 0
		bestMMR := mmrScore(remaining[0], selected, lambda)
		for i := 1; i < len(remaining); i++ {
			if s := mmrScore(remaining[i], selected, lambda); s > bestMMR {
				bestMMR = s
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func mmrScore(c Candidate, selected []Candidate, lambda float64) float64 {
	maxSim := 0.0
	for _, s := range selected {
		if sim := Similarity(c, s); sim > maxSim {
			maxSim = sim
		}
	}
	return lambda*c.Score - (1-lambda)*maxSim
}

// PairwiseDiversity 返回每个条目相对整个集合的多样性分：
// 1 − 与其余条目的平均相似度。单元素集合的多样性记为 1。
func PairwiseDiversity(set []Candidate) []float64 {
	out := make([]float64, len(set))
	if len(set) <= 1 {
		for i := range out {
			out[i] = 1
		}
		return out
	}
	for i := range set {
		var total float64
		for j := range set {
			if i == j {
				continue
			}
			total += Similarity(set[i], set[j])
		}
		out[i] = clamp01(1 - total/float64(len(set)-1))
	}
	return out
}
