package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/reelkit/reelkit/core"
)

// recentWindowCap 是全局最近评分窗口在存储中的保留上限。
const recentWindowCap = 10000

// RatingAdapter 把评分/想看清单/多样性指标映射到 core.Store 的 JSON 值上，
// 同时实现 core.RatingStore 和 core.MetricsStore。
//
// key 布局（{KeyPrefix} 默认 "reelkit"）：
//
//	{KeyPrefix}:ratings:user:{userID}  用户全部评分，时间降序的 JSON 数组
//	{KeyPrefix}:watchlist:{userID}     想看清单的 JSON 数组
//	{KeyPrefix}:ratings:recent         全局最近评分窗口的 JSON 数组
//	{KeyPrefix}:metrics:{userID}:{ns}  单行多样性指标
type RatingAdapter struct {
	store core.Store

	KeyPrefix string
}

func NewRatingAdapter(s core.Store, keyPrefix string) *RatingAdapter {
	if keyPrefix == "" {
		keyPrefix = "reelkit"
	}
	return &RatingAdapter{store: s, KeyPrefix: keyPrefix}
}

func (a *RatingAdapter) userKey(userID string) string {
	return a.KeyPrefix + ":ratings:user:" + userID
}

func (a *RatingAdapter) watchlistKey(userID string) string {
	return a.KeyPrefix + ":watchlist:" + userID
}

func (a *RatingAdapter) recentKey() string {
	return a.KeyPrefix + ":ratings:recent"
}

// GetUserRatings 返回用户全部评分，按评分时间降序；key 不存在视为无评分。
func (a *RatingAdapter) GetUserRatings(ctx context.Context, userID string) ([]core.Rating, error) {
	var ratings []core.Rating
	if err := a.getJSON(ctx, a.userKey(userID), &ratings); err != nil {
		return nil, err
	}
	sort.SliceStable(ratings, func(i, j int) bool {
		return ratings[i].RatedAt.After(ratings[j].RatedAt)
	})
	return ratings, nil
}

func (a *RatingAdapter) GetWatchlist(ctx context.Context, userID string) ([]core.ItemRef, error) {
	var refs []core.ItemRef
	if err := a.getJSON(ctx, a.watchlistKey(userID), &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

func (a *RatingAdapter) GetRecentRatings(ctx context.Context, limit int) ([]core.Rating, error) {
	var ratings []core.Rating
	if err := a.getJSON(ctx, a.recentKey(), &ratings); err != nil {
		return nil, err
	}
	sort.SliceStable(ratings, func(i, j int) bool {
		return ratings[i].RatedAt.After(ratings[j].RatedAt)
	})
	if limit > 0 && len(ratings) > limit {
		ratings = ratings[:limit]
	}
	return ratings, nil
}

// RecordRating 写入一条评分：更新用户评分列表与全局最近窗口。
// 同一条目重复评分时覆盖旧值。
func (a *RatingAdapter) RecordRating(ctx context.Context, r core.Rating) error {
	ratings, err := a.GetUserRatings(ctx, r.UserID)
	if err != nil {
		return err
	}
	out := make([]core.Rating, 0, len(ratings)+1)
	out = append(out, r)
	for _, old := range ratings {
		if old.Key() != r.Key() {
			out = append(out, old)
		}
	}
	if err := a.setJSON(ctx, a.userKey(r.UserID), out); err != nil {
		return err
	}

	recent, err := a.GetRecentRatings(ctx, recentWindowCap-1)
	if err != nil {
		return err
	}
	recent = append([]core.Rating{r}, recent...)
	return a.setJSON(ctx, a.recentKey(), recent)
}

// SetWatchlist 整体覆盖用户的想看清单。
func (a *RatingAdapter) SetWatchlist(ctx context.Context, userID string, refs []core.ItemRef) error {
	return a.setJSON(ctx, a.watchlistKey(userID), refs)
}

// InsertDiversityMetrics 独立 insert 一行指标，key 带纳秒时间戳避免覆盖。
func (a *RatingAdapter) InsertDiversityMetrics(ctx context.Context, m core.DiversityMetrics) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	key := fmt.Sprintf("%s:metrics:%s:%d", a.KeyPrefix, m.UserID, m.CreatedAt.UnixNano())
	return a.setJSON(ctx, key, m)
}

// getJSON 读取并反序列化；key 不存在时保持 v 的零值，不视为错误。
func (a *RatingAdapter) getJSON(ctx context.Context, key string, v any) error {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, v)
}

func (a *RatingAdapter) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, key, data)
}

var (
	_ core.RatingStore  = (*RatingAdapter)(nil)
	_ core.MetricsStore = (*RatingAdapter)(nil)
)
