package diversity

import (
	"math"
	"testing"
)

func TestLUStrategy_Determinant(t *testing.T) {
	tests := []struct {
		name     string
		kernel   [][]float64
		selected []int
		want     float64
	}{
		{
			name:     "一阶子阵",
			kernel:   [][]float64{{0.9}},
			selected: []int{0},
			want:     0.9,
		},
		{
			name: "二阶子阵",
			kernel: [][]float64{
				{2, 1},
				{1, 2},
			},
			selected: []int{0, 1},
			want:     3, // 2*2 - 1*1
		},
		{
			name: "需要换行的三阶子阵",
			kernel: [][]float64{
				{0, 1, 2},
				{1, 0, 3},
				{4, 5, 6},
			},
			selected: []int{0, 1, 2},
			want:     16,
		},
		{
			name: "奇异子阵",
			kernel: [][]float64{
				{1, 2},
				{2, 4},
			},
			selected: []int{0, 1},
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LUStrategy{}.Determinant(tt.kernel, tt.selected)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("期望行列式 %f，实际 %f", tt.want, got)
			}
		})
	}
}

func TestSumAbsStrategy_Determinant(t *testing.T) {
	kernel := [][]float64{
		{1, -2},
		{-2, 3},
	}
	got := SumAbsStrategy{}.Determinant(kernel, []int{0, 1})
	if got != 8 { // |1|+|-2|+|-2|+|3|
		t.Fatalf("期望 8，实际 %f", got)
	}
}

func TestDPP_SelectFirstIsTopScore(t *testing.T) {
	cands := []Candidate{
		{ID: "a", Score: 0.5, Genres: []string{"Action"}},
		{ID: "b", Score: 0.9, Genres: []string{"Action"}},
		{ID: "c", Score: 0.7, Genres: []string{"Drama"}},
	}
	dpp := &DPP{}
	out := dpp.Select(cands, 2)
	if len(out) != 2 {
		t.Fatalf("期望 2 个结果，实际 %d", len(out))
	}
	if out[0].ID != "b" {
		t.Fatalf("首个入选应为最高分候选 b，实际 %s", out[0].ID)
	}
}

func TestDPP_SelectStrategies(t *testing.T) {
	// 两种策略都应产出不重复的完整选集
	cands := make([]Candidate, 0, 8)
	genres := []string{"Action", "Drama", "Comedy", "Horror"}
	for i := 0; i < 8; i++ {
		cands = append(cands, Candidate{
			ID:     string(rune('a' + i)),
			Score:  0.9 - float64(i)*0.05,
			Genres: []string{genres[i%len(genres)]},
		})
	}

	for _, strat := range []DeterminantStrategy{SumAbsStrategy{}, LUStrategy{}} {
		dpp := &DPP{Strategy: strat}
		out := dpp.Select(cands, 5)
		if len(out) != 5 {
			t.Fatalf("策略 %s: 期望 5 个结果，实际 %d", strat.Name(), len(out))
		}
		seen := make(map[string]bool)
		for _, c := range out {
			if seen[c.ID] {
				t.Fatalf("策略 %s: 候选 %s 重复入选", strat.Name(), c.ID)
			}
			seen[c.ID] = true
		}
	}
}
