package feast

import (
	"context"

	"github.com/reelkit/reelkit/core"
	"github.com/reelkit/reelkit/pkg/conv"
)

// 在线特征名称约定：user_rank_weights 特征视图下的两个权重乘子。
const (
	featureGenreMatch    = "user_rank_weights:genre_match"
	featureRatingQuality = "user_rank_weights:rating_quality"
)

// WeightProvider 基于 Feast 在线特征实现 core.WeightService。
//
// 权重由离线作业按用户行为周期性物化到在线存储；
// 特征缺失的用户取默认乘子 1.0，请求失败时整体返回错误，
// 由排序层回退到固定默认权重。
type WeightProvider struct {
	Client Client

	// Project 项目名称（可选，为空时取客户端默认值）
	Project string
}

func NewWeightProvider(client Client, project string) *WeightProvider {
	return &WeightProvider{Client: client, Project: project}
}

func (p *WeightProvider) AdaptiveWeights(ctx context.Context, userID string) (core.Weights, error) {
	if p.Client == nil {
		return core.DefaultWeights(), nil
	}

	resp, err := p.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   []string{featureGenreMatch, featureRatingQuality},
		EntityRows: []map[string]interface{}{{"user_id": userID}},
		Project:    p.Project,
	})
	if err != nil {
		return core.Weights{}, err
	}
	if len(resp.FeatureVectors) == 0 {
		return core.DefaultWeights(), nil
	}

	w := core.DefaultWeights()
	values := resp.FeatureVectors[0].Values
	if v, ok := values[featureGenreMatch]; ok {
		if f, ok := conv.ToFloat64(v); ok && f > 0 {
			w.GenreMatch = f
		}
	}
	if v, ok := values[featureRatingQuality]; ok {
		if f, ok := conv.ToFloat64(v); ok && f > 0 {
			w.RatingQuality = f
		}
	}
	return w, nil
}

var _ core.WeightService = (*WeightProvider)(nil)
