package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/reelkit/reelkit/core"
)

// CatalogClient 是 TMDB 风格内容目录的 HTTP 客户端，
// 同时实现 core.CatalogService 与 core.MetadataService。
//
// REST API 格式：
//   - 发现：GET /discover/{mediaType}?with_genres=&page=&vote_count.gte=
//   - 趋势：GET /trending/all/week?page=
//   - 高分榜：GET /{mediaType}/top_rated?page=
//   - 详情：GET /{mediaType}/{id}
//
// 批量元数据在客户端侧聚合：并发度受 metadataConcurrency 约束的
// 详情请求，单条失败只缺该条，不导致整批失败。
type CatalogClient struct {
	// Endpoint 服务端点，如 "https://api.themoviedb.org/3"
	Endpoint string

	// APIKey 以查询参数 api_key 传递
	APIKey string

	// Timeout 单次请求超时
	Timeout time.Duration

	httpClient *http.Client
}

const metadataConcurrency = 8

// CatalogOption 目录客户端配置选项。
type CatalogOption func(*CatalogClient)

func WithCatalogTimeout(timeout time.Duration) CatalogOption {
	return func(c *CatalogClient) {
		c.Timeout = timeout
		if c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithCatalogHTTPClient(httpClient *http.Client) CatalogOption {
	return func(c *CatalogClient) { c.httpClient = httpClient }
}

func NewCatalogClient(endpoint, apiKey string, opts ...CatalogOption) *CatalogClient {
	client := &CatalogClient{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: client.Timeout}
	}
	return client
}

// catalogItem 是目录接口返回的原始条目；电影用 title，剧集用 name。
type catalogItem struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	MediaType    string  `json:"media_type"`
	PosterPath   string  `json:"poster_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	GenreIDs     []int64 `json:"genre_ids"`
	Popularity   float64 `json:"popularity"`
	FirstAirDate string  `json:"first_air_date"`
}

type catalogPage struct {
	Page    int           `json:"page"`
	Results []catalogItem `json:"results"`
}

func (c *CatalogClient) DiscoverByGenre(ctx context.Context, genreID int64, page int, minVoteCount int) ([]core.CatalogEntry, error) {
	q := url.Values{}
	q.Set("with_genres", strconv.FormatInt(genreID, 10))
	q.Set("page", strconv.Itoa(page))
	q.Set("sort_by", "popularity.desc")
	if minVoteCount > 0 {
		q.Set("vote_count.gte", strconv.Itoa(minVoteCount))
	}
	entries, err := c.fetchPage(ctx, "/discover/movie", q, core.MediaTypeMovie)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *CatalogClient) Trending(ctx context.Context, page int) ([]core.CatalogEntry, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	return c.fetchPage(ctx, "/trending/all/week", q, "")
}

func (c *CatalogClient) TopRated(ctx context.Context, page int) ([]core.CatalogEntry, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	return c.fetchPage(ctx, "/movie/top_rated", q, core.MediaTypeMovie)
}

// fetchPage 请求一页目录并转换为领域条目；defaultMediaType 用于
// 不带 media_type 字段的端点。
func (c *CatalogClient) fetchPage(ctx context.Context, path string, q url.Values, defaultMediaType string) ([]core.CatalogEntry, error) {
	var page catalogPage
	if err := c.getJSON(ctx, path, q, &page); err != nil {
		return nil, err
	}

	entries := make([]core.CatalogEntry, 0, len(page.Results))
	for _, it := range page.Results {
		mediaType := it.MediaType
		if mediaType == "" {
			mediaType = defaultMediaType
		}
		if mediaType != core.MediaTypeMovie && mediaType != core.MediaTypeTV {
			continue
		}
		title := it.Title
		if title == "" {
			title = it.Name
		}
		entries = append(entries, core.CatalogEntry{
			TMDBID:      it.ID,
			MediaType:   mediaType,
			Title:       title,
			PosterPath:  it.PosterPath,
			VoteAverage: it.VoteAverage,
			VoteCount:   it.VoteCount,
			GenreIDs:    it.GenreIDs,
			Popularity:  it.Popularity,
		})
	}
	return entries, nil
}

// detailResponse 是详情端点的原始结构。
type detailResponse struct {
	Genres []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
	VoteAverage  float64 `json:"vote_average"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	Runtime      int     `json:"runtime"`
	PosterPath   string  `json:"poster_path"`
}

// BatchMetadata 并发拉取各条目的详情。单条失败或上下文取消时该条缺失，
// 调用方按约定用安全默认值兜底。
func (c *CatalogClient) BatchMetadata(ctx context.Context, refs []core.ItemRef) (map[string]core.ItemMetadata, error) {
	if len(refs) == 0 {
		return map[string]core.ItemMetadata{}, nil
	}

	type result struct {
		key  string
		meta core.ItemMetadata
		ok   bool
	}

	sem := make(chan struct{}, metadataConcurrency)
	results := make(chan result, len(refs))
	for _, ref := range refs {
		ref := ref
		go func() {
			sem <- struct{}{}
			defer func() { <-sem }()
			meta, err := c.fetchDetail(ctx, ref)
			results <- result{key: ref.Key(), meta: meta, ok: err == nil}
		}()
	}

	out := make(map[string]core.ItemMetadata, len(refs))
	for range refs {
		r := <-results
		if r.ok {
			out[r.key] = r.meta
		}
	}
	return out, nil
}

func (c *CatalogClient) fetchDetail(ctx context.Context, ref core.ItemRef) (core.ItemMetadata, error) {
	path := fmt.Sprintf("/%s/%d", ref.MediaType, ref.TMDBID)
	var detail detailResponse
	if err := c.getJSON(ctx, path, url.Values{}, &detail); err != nil {
		return core.ItemMetadata{}, err
	}

	genres := make([]string, 0, len(detail.Genres))
	for _, g := range detail.Genres {
		genres = append(genres, g.Name)
	}
	releaseDate := detail.ReleaseDate
	if releaseDate == "" {
		releaseDate = detail.FirstAirDate
	}
	return core.ItemMetadata{
		Genres:      genres,
		VoteAverage: detail.VoteAverage,
		ReleaseDate: releaseDate,
		Overview:    detail.Overview,
		Runtime:     detail.Runtime,
		PosterPath:  detail.PosterPath,
	}, nil
}

func (c *CatalogClient) getJSON(ctx context.Context, path string, q url.Values, v any) error {
	if c.APIKey != "" {
		q.Set("api_key", c.APIKey)
	}
	u := c.Endpoint + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("catalog error: status=%d, body=%s", resp.StatusCode, string(bodyBytes))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

var (
	_ core.CatalogService  = (*CatalogClient)(nil)
	_ core.MetadataService = (*CatalogClient)(nil)
)
