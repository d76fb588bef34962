package core

import (
	"fmt"
	"strings"

	"github.com/reelkit/reelkit/pkg/utils"
)

// MediaType 取值。目录方、元数据方与打分方共用这两个值。
const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// 特征 key 约定：排序阶段写入的分项得分，重排阶段据此生成推荐理由。
const (
	FeatureMLScore       = "ml_score"
	FeatureCollaborative = "collaborative_score"
	FeatureGenreMatch    = "genre_match"
	FeatureQuality       = "quality_score"
	FeaturePopularity    = "popularity_score"
	FeatureDiversity     = "diversity_score"
)

// Item 是推荐链路中的统一承载结构：召回候选、排序结果、重排产物共用同一结构。
// 全链路以 (TMDBID, MediaType) 作为唯一标识；BaseScore 由召回源写入且不再变化，
// Score 在排序/重排阶段被更新。
type Item struct {
	TMDBID     int64
	MediaType  string // movie / tv
	Title      string
	PosterPath string

	// BaseScore 是召回源给出的初始置信分，也是打分失败时的兜底值。
	BaseScore float64
	// Score 是当前阶段的排序分，写入前统一经过 Clamp01。
	Score float64

	// Genres / Embedding 供多样性算法使用；Embedding 可为空，此时相似度退化为
	// 类型集合的 Jaccard 重叠。
	Genres    []string
	Embedding []float64

	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(tmdbID int64, mediaType string) *Item {
	return &Item{
		TMDBID:    tmdbID,
		MediaType: mediaType,
		Features:  make(map[string]float64),
		Meta:      make(map[string]any),
		Labels:    make(map[string]utils.Label),
	}
}

// Key 返回去重标识：同一 (TMDBID, MediaType) 视为同一候选。
func (it *Item) Key() string {
	return ItemKey(it.TMDBID, it.MediaType)
}

// ItemKey 生成 "<mediaType>:<tmdbID>" 形式的标识，与 MetadataService 的返回 key 一致。
func ItemKey(tmdbID int64, mediaType string) string {
	return fmt.Sprintf("%s:%d", mediaType, tmdbID)
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// PutFeature 写入特征分。
func (it *Item) PutFeature(key string, v float64) {
	if it.Features == nil {
		it.Features = make(map[string]float64)
	}
	it.Features[key] = v
}

// RecallSource 返回召回来源标签值（如 "collaborative"、"trending"、"genre:action"）。
// 去重合并后 Value 可能累积多个来源，只取第一个（即 BaseScore 更高的那个来源）。
func (it *Item) RecallSource() string {
	if it.Labels == nil {
		return ""
	}
	lbl, ok := it.Labels["recall_source"]
	if !ok {
		return ""
	}
	if i := strings.IndexByte(lbl.Value, '|'); i >= 0 {
		return lbl.Value[:i]
	}
	return lbl.Value
}

// FromGenreRecall 判断候选是否来自类型召回源。
func (it *Item) FromGenreRecall() bool {
	return strings.HasPrefix(it.RecallSource(), "genre")
}

// Clamp01 把分数钳制到 [0,1]。
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
