package diversity

// CalculateMetrics 计算一组结果的多样性监控指标：
//   - IntraDiversity: 平均两两类型差异度（1 − Jaccard）
//   - GenreBalance:   类型分布 Shannon 熵
//   - SerendipityScore: 与用户偏好零重叠的条目占比
//   - CoverageScore:  结果集出现的偏好类型占偏好集的比例，封顶 1
//
// ExplorationRate 无法从结果集反推，由调用方按所用配置填入。
func CalculateMetrics(items []Candidate, userGenrePrefs []string) Metrics {
	m := Metrics{
		GenreBalance: GenreDiversity(items),
	}
	if len(items) == 0 {
		return m
	}

	// 平均两两差异度
	if len(items) >= 2 {
		var total float64
		pairs := 0
		for i := 0; i < len(items)-1; i++ {
			for j := i + 1; j < len(items); j++ {
				total += 1 - GenreSimilarity(items[i], items[j])
				pairs++
			}
		}
		m.IntraDiversity = clamp01(total / float64(pairs))
	} else {
		m.IntraDiversity = 1
	}

	if len(userGenrePrefs) > 0 {
		prefSet := make(map[string]struct{}, len(userGenrePrefs))
		for _, g := range userGenrePrefs {
			prefSet[g] = struct{}{}
		}

		zeroOverlap := 0
		covered := make(map[string]struct{})
		for _, c := range items {
			if prefOverlap(c, prefSet) == 0 {
				zeroOverlap++
			}
			for _, g := range c.Genres {
				if _, ok := prefSet[g]; ok {
					covered[g] = struct{}{}
				}
			}
		}
		m.SerendipityScore = float64(zeroOverlap) / float64(len(items))
		m.CoverageScore = clamp01(float64(len(covered)) / float64(len(userGenrePrefs)))
	}

	return m
}
