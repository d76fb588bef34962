package diversity

import (
	"math"
	"sort"
)

// dppKernelCap 限制核矩阵规模：n×n 的构建与每轮行列式评估都是 O(n²) 起步，
// 50 以内的成本可控且对 Top 候选足够。
const dppKernelCap = 50

// DeterminantStrategy 是 DPP 选择准则的可插拔策略。
//
// 线上观测到的参考行为用的是“绝对值求和”代理而不是真实行列式，
// 这会改变理论上的多样性保证，但选择方向一致（核矩阵的非对角元
// 随差异度增大而增大）。保留该行为作为默认值（SumAbsStrategy），
// 需要数学意义上严格的行列式时换成 LUStrategy 即可，编排逻辑不变。
type DeterminantStrategy interface {
	Name() string

	// Determinant 对核矩阵在 selected 索引集上的子矩阵求“行列式度量”
	Determinant(kernel [][]float64, selected []int) float64
}

// SumAbsStrategy 是观测到的参考行为：子矩阵全部元素的绝对值求和。
type SumAbsStrategy struct{}

func (SumAbsStrategy) Name() string { return "sumabs" }

func (SumAbsStrategy) Determinant(kernel [][]float64, selected []int) float64 {
	var total float64
	for _, i := range selected {
		for _, j := range selected {
			total += math.Abs(kernel[i][j])
		}
	}
	return total
}

// LUStrategy 通过带部分主元的 LU 分解计算真实行列式。
type LUStrategy struct{}

func (LUStrategy) Name() string { return "lu" }

func (LUStrategy) Determinant(kernel [][]float64, selected []int) float64 {
	n := len(selected)
	if n == 0 {
		return 0
	}
	// 拷贝子矩阵，消元在副本上进行
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range m[i] {
			m[i][j] = kernel[selected[i]][selected[j]]
		}
	}

	det := 1.0
	for col := 0; col < n; col++ {
		// 部分主元：取当前列绝对值最大的行
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if m[pivot][col] == 0 {
			return 0 // 奇异矩阵
		}
		if pivot != col {
			m[pivot], m[col] = m[col], m[pivot]
			det = -det
		}
		det *= m[col][col]
		for row := col + 1; row < n; row++ {
			factor := m[row][col] / m[col][col]
			for k := col; k < n; k++ {
				m[row][k] -= factor * m[col][k]
			}
		}
	}
	return det
}

// DPP 是 DPP 式贪心选择器：质量在对角线上、√(sᵢ·sⱼ)·(1−genreSim) 在非对角线上
// 构成核矩阵，贪心地逐个选入使行列式度量最大的未选索引。
type DPP struct {
	// Strategy 为空时使用 SumAbsStrategy（参考行为）
	Strategy DeterminantStrategy
}

// Select 从 cands 中选出至多 limit 个条目。候选先按分数降序截到核矩阵上限。
func (d *DPP) Select(cands []Candidate, limit int) []Candidate {
	if len(cands) == 0 || limit <= 0 {
		return nil
	}

	strat := d.Strategy
	if strat == nil {
		strat = SumAbsStrategy{}
	}

	pool := make([]Candidate, len(cands))
	copy(pool, cands)
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Score > pool[j].Score })
	if len(pool) > dppKernelCap {
		pool = pool[:dppKernelCap]
	}
	if limit > len(pool) {
		limit = len(pool)
	}

	kernel := buildKernel(pool)

	selected := make([]int, 0, limit)
	used := make([]bool, len(pool))

	for len(selected) < limit {
		bestIdx := -1
		bestDet := math.Inf(-1)
		for i := range pool {
			if used[i] {
				continue
			}
			det := strat.Determinant(kernel, append(selected, i))
			if det > bestDet {
				bestDet = det
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		used[bestIdx] = true
		selected = append(selected, bestIdx)
	}

	out := make([]Candidate, 0, len(selected))
	for _, i := range selected {
		out = append(out, pool[i])
	}
	return out
}

func buildKernel(pool []Candidate) [][]float64 {
	n := len(pool)
	kernel := make([][]float64, n)
	for i := range kernel {
		kernel[i] = make([]float64, n)
		kernel[i][i] = pool[i].Score
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := math.Sqrt(pool[i].Score*pool[j].Score) * (1 - GenreSimilarity(pool[i], pool[j]))
			kernel[i][j] = v
			kernel[j][i] = v
		}
	}
	return kernel
}
