// Package feast 封装 Feast Feature Store 的在线特征访问，
// 并在其上实现排序层的自适应权重服务。
package feast

import (
	"context"
	"time"
)

// Client 是 Feast 在线特征的客户端接口。
//
// 设计原则（DDD）：
//   - 领域层只依赖此接口
//   - 基础设施层由 GrpcClient（官方 SDK）实现，可替换
//
// 参考：https://github.com/feast-dev/feast
type Client interface {
	// GetOnlineFeatures 获取在线特征（用于实时推荐）
	//
	// 参数：
	//   - features: 特征名称列表，例如 ["user_rank_weights:genre_match"]
	//   - entityRows: 实体行，例如 [{"user_id": "u-1001"}]
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端连接
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求。
type GetOnlineFeaturesRequest struct {
	// Features 特征名称列表
	Features []string

	// EntityRows 实体行
	EntityRows []map[string]interface{}

	// Project 项目名称（可选，为空时取客户端默认值）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应。
type GetOnlineFeaturesResponse struct {
	// FeatureVectors 特征向量列表，每个元素对应一个实体行
	FeatureVectors []FeatureVector
}

// FeatureVector 单个实体行的特征值集合。
type FeatureVector struct {
	// Values 特征值，key 为特征名称
	Values map[string]interface{}

	// EntityRow 对应的实体行
	EntityRow map[string]interface{}
}

// ClientOption Feast 客户端配置选项。
type ClientOption func(*ClientConfig)

// ClientConfig Feast 客户端配置。
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration
	Auth     *AuthConfig
}

// AuthConfig 认证配置；Type 目前支持 "static"（静态 Token）。
type AuthConfig struct {
	Type  string
	Token string
}

// WithTimeout 设置超时时间。
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithAuth 设置认证信息。
func WithAuth(auth *AuthConfig) ClientOption {
	return func(c *ClientConfig) {
		c.Auth = auth
	}
}
