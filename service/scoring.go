// Package service 提供外部协作方的 HTTP 客户端实现：
// ML 打分服务与 TMDB 风格的内容目录/元数据服务。
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/reelkit/reelkit/core"
)

// ScoringClient 是外部 ML 打分服务的 HTTP 客户端。
//
// REST API 格式：
//   - 推理端点：POST /predict
//   - 请求体：{"user_id": "...", "tmdb_id": 123, "media_type": "movie"}
//   - 响应：{"score": 0.85}
//   - 健康检查：GET /health
//
// 返回分数统一钳制到 [0,1]；任何请求失败由精排层按候选降级处理。
type ScoringClient struct {
	// Endpoint 服务端点，如 "http://localhost:8000"
	Endpoint string

	// Timeout 单次请求超时
	Timeout time.Duration

	// APIKey 可选认证
	APIKey string

	httpClient *http.Client
}

// ScoringOption 打分客户端配置选项。
type ScoringOption func(*ScoringClient)

func WithScoringTimeout(timeout time.Duration) ScoringOption {
	return func(c *ScoringClient) {
		c.Timeout = timeout
		if c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithScoringAPIKey(key string) ScoringOption {
	return func(c *ScoringClient) { c.APIKey = key }
}

func WithScoringHTTPClient(httpClient *http.Client) ScoringOption {
	return func(c *ScoringClient) { c.httpClient = httpClient }
}

func NewScoringClient(endpoint string, opts ...ScoringOption) *ScoringClient {
	client := &ScoringClient{
		Endpoint: endpoint,
		Timeout:  5 * time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: client.Timeout}
	}
	return client
}

type predictRequest struct {
	UserID    string `json:"user_id"`
	TMDBID    int64  `json:"tmdb_id"`
	MediaType string `json:"media_type"`
}

type predictResponse struct {
	Score float64 `json:"score"`
}

func (c *ScoringClient) PredictScore(ctx context.Context, userID string, tmdbID int64, mediaType string) (float64, error) {
	body, err := json.Marshal(predictRequest{
		UserID:    userID,
		TMDBID:    tmdbID,
		MediaType: mediaType,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	url := c.Endpoint + "/predict"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("X-API-Key", c.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("scoring request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("scoring error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return core.Clamp01(out.Score), nil
}

func (c *ScoringClient) Health(ctx context.Context) error {
	url := c.Endpoint + "/health"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.APIKey != "" {
		httpReq.Header.Set("X-API-Key", c.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("health check failed: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}
	return nil
}

func (c *ScoringClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

var _ core.ScoreService = (*ScoringClient)(nil)
