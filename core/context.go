package core

import "github.com/reelkit/reelkit/pkg/utils"

// RecommendContext 承载用户/场景/实时信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string
	Scene  string

	// User 是本次请求构建的用户画像；DataInsufficiency 时可以为空，
	// 各 Node 必须容忍 nil 并退化为非个性化行为。
	User *UserContext

	// Labels 是用户级标签，可驱动整个 Pipeline 行为（新用户、重度用户等）。
	Labels map[string]utils.Label

	// Params 请求级上下文参数（如 candidate_count、final_limit 的覆盖值）。
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// FavoriteGenres 返回画像中的常看类型；画像为空时返回 nil。
func (rctx *RecommendContext) FavoriteGenres() []string {
	if rctx == nil || rctx.User == nil {
		return nil
	}
	return rctx.User.FavoriteGenres
}
