package pipeline

import (
	"context"

	"github.com/reelkit/reelkit/core"
)

// Kind 标记 Node 所处的阶段，供编排与观测使用。
type Kind string

const (
	// KindRecall 召回：从目录/协同/趋势等来源生成候选集
	KindRecall Kind = "recall"
	// KindFilter 过滤：剔除已看过或不满足约束的候选
	KindFilter Kind = "filter"
	// KindRank 排序：集成打分并按最终分降序
	KindRank Kind = "rank"
	// KindReRank 重排：多样性、探索与惊喜注入
	KindReRank Kind = "rerank"
	// KindPostProcess 后处理：元数据补全等收尾修饰
	KindPostProcess Kind = "postprocess"
)

// Node 是链路的最小组成单元，形态统一为 items 进 items 出：
// 召回 Node 忽略输入从零生成，过滤/排序/重排 Node 变换输入。
// 协作方失败时 Node 应就地降级，error 只用于无法继续的情况。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}
