package recall

import (
	"context"
	"math"
	"sort"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pkg/utils"
)

// CollaborativeSource 是基于用户的协同过滤召回源（User-CF）。
//
// 核心思想：“兴趣相似的用户，喜欢相似的影片”
//
// 算法流程：
//  1. 取目标用户的评分向量
//  2. 在全局最近评分窗口内按用户分组，对共同评分 ≥ MinCommonItems 的
//     用户计算余弦相似度
//  3. 取 TopK 相似用户
//  4. 把他们打出高分（≥ LikeThreshold）而目标用户未看过的影片作为候选
//
// 相似用户搜索是 CPU 密集型的，必须跑在有界窗口上：WindowSize 是
// 刻意设置的内存/算力安全控制，不是偶然的截断。
type CollaborativeSource struct {
	Ratings core.RatingStore

	// WindowSize 全局最近评分窗口行数上限，<=0 时取 10000
	WindowSize int

	// TopKUsers 参与候选收集的相似用户数，<=0 时取 20
	TopKUsers int

	// MinCommonItems 计算相似度所需的最少共同评分数，<=0 时取 2
	MinCommonItems int

	// LikeThreshold 相似用户的“喜欢”阈值（10 分制），<=0 时取 8
	LikeThreshold float64
}

const collaborativeBaseScore = 0.7

func (r *CollaborativeSource) Name() string { return "recall.collaborative" }

func (r *CollaborativeSource) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
	limit int,
) ([]*core.Item, error) {
	if r.Ratings == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	target, err := r.Ratings.GetUserRatings(ctx, rctx.UserID)
	if err != nil || len(target) == 0 {
		return nil, nil // 无评分用户没有协同信号
	}

	window := r.WindowSize
	if window <= 0 {
		window = 10000
	}
	recent, err := r.Ratings.GetRecentRatings(ctx, window)
	if err != nil || len(recent) == 0 {
		return nil, nil
	}

	targetVec := make(map[string]float64, len(target))
	for _, rt := range target {
		targetVec[rt.Key()] = rt.Rating
	}

	// 窗口内按用户分组
	byUser := make(map[string]map[string]float64)
	userRatings := make(map[string][]core.Rating)
	for _, rt := range recent {
		if rt.UserID == rctx.UserID {
			continue
		}
		vec, ok := byUser[rt.UserID]
		if !ok {
			vec = make(map[string]float64)
			byUser[rt.UserID] = vec
		}
		vec[rt.Key()] = rt.Rating
		userRatings[rt.UserID] = append(userRatings[rt.UserID], rt)
	}

	minCommon := r.MinCommonItems
	if minCommon <= 0 {
		minCommon = 2
	}

	type userSim struct {
		userID string
		sim    float64
	}
	sims := make([]userSim, 0, len(byUser))
	for userID, vec := range byUser {
		sim := cosineOverlap(targetVec, vec, minCommon)
		if sim > 0 {
			sims = append(sims, userSim{userID: userID, sim: sim})
		}
	}
	if len(sims) == 0 {
		return nil, nil
	}

	sort.SliceStable(sims, func(i, j int) bool { return sims[i].sim > sims[j].sim })
	topK := r.TopKUsers
	if topK <= 0 {
		topK = 20
	}
	if len(sims) > topK {
		sims = sims[:topK]
	}

	like := r.LikeThreshold
	if like <= 0 {
		like = 8
	}

	// 收集相似用户的高分片，跳过目标用户已看过的
	out := make([]*core.Item, 0, limit)
	added := make(map[string]struct{})
	for _, s := range sims {
		for _, rt := range userRatings[s.userID] {
			if rt.Rating < like {
				continue
			}
			key := rt.Key()
			if _, ok := targetVec[key]; ok {
				continue
			}
			if _, ok := added[key]; ok {
				continue
			}
			added[key] = struct{}{}

			it := core.NewItem(rt.TMDBID, rt.MediaType)
			it.BaseScore = collaborativeBaseScore
			it.Score = collaborativeBaseScore
			it.PutLabel("recall_source", utils.Label{Value: "collaborative", Source: "recall"})
			out = append(out, it)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// cosineOverlap 在两个评分向量的交集上计算余弦相似度。
// 交集小于 minCommon 时不参与相似度计算；任一侧模为零时相似度记 0，
// 不让 NaN 沿链路传播。
func cosineOverlap(a, b map[string]float64, minCommon int) float64 {
	var dot, normA, normB float64
	common := 0
	for key, ra := range a {
		rb, ok := b[key]
		if !ok {
			continue
		}
		common++
		dot += ra * rb
		normA += ra * ra
		normB += rb * rb
	}
	if common < minCommon {
		return 0
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
