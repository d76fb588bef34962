package recall

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pipeline"
)

// WeightedSource 把召回源和它在候选池中的份额绑在一起。
type WeightedSource struct {
	Source Source

	// Share ∈ (0,1]：该源在 TargetCount 中的占比
	Share float64
}

// Fanout 是候选生成 Node：并发执行多个召回源，各源按份额领取配额，
// 结果合并去重后截断到 TargetCount。
//
// 失败语义：任何一个源失败只产生空分支，绝不中断其他源，
// DataInsufficiency（无评分、无相似用户、无常看类型）也走同一条路。
type Fanout struct {
	Sources []WeightedSource

	// TargetCount 候选池上限，<=0 时取 2000
	TargetCount int

	// Timeout 每个召回源的超时时间，0 表示只受调用方 deadline 约束
	Timeout time.Duration

	// MaxConcurrent 最大并发源数（0 表示无限制）
	MaxConcurrent int
}

const defaultTargetCount = 2000

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	target := n.TargetCount
	if target <= 0 {
		target = defaultTargetCount
	}

	var (
		mu    sync.Mutex
		all   []*core.Item
		eg, _ = errgroup.WithContext(ctx)
	)

	// MaxConcurrent > 0 时用 semaphore 限制同时在跑的召回源数
	var sem chan struct{}
	if n.MaxConcurrent > 0 {
		sem = make(chan struct{}, n.MaxConcurrent)
	}

	for _, ws := range n.Sources {
		src := ws.Source
		quota := int(float64(target) * ws.Share)
		if quota <= 0 {
			continue
		}

		eg.Go(func() error {
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}

			recallCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx, quota)
			if err != nil {
				// 超时或错误时该源退化为空分支，不中断其他召回源
				return nil
			}
			if len(items) > quota {
				items = items[:quota]
			}

			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	merged := mergeByBaseScore(all)
	if len(merged) > target {
		merged = merged[:target]
	}
	return merged, nil
}

// mergeByBaseScore 按 (tmdbID, mediaType) 去重：冲突时保留 BaseScore 更高的候选，
// 并把另一方的 labels 合并进来（保留来源可追踪）。
func mergeByBaseScore(all []*core.Item) []*core.Item {
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		key := it.Key()
		old, ok := seen[key]
		if !ok {
			seen[key] = it
			out = append(out, it)
			continue
		}
		if it.BaseScore > old.BaseScore {
			// 新候选胜出：沿用原槽位，搬运 labels
			for k, v := range old.Labels {
				it.PutLabel(k, v)
			}
			seen[key] = it
			for i := range out {
				if out[i] == old {
					out[i] = it
					break
				}
			}
		} else {
			for k, v := range it.Labels {
				old.PutLabel(k, v)
			}
		}
	}
	return out
}
