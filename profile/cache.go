package profile

import (
	"sync"
	"time"

	"github.com/reelkit/reelkit/core"
)

// Cache 是画像的进程内 TTL 缓存。
// 新评分写入后调用方应显式 Invalidate，否则画像最长滞后一个 TTL。
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	defaultTTL time.Duration

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

type cacheEntry struct {
	user       *core.UserContext
	expireTime time.Time
}

// NewCache 创建画像缓存并启动后台清理协程，不再使用时必须 Close。
func NewCache(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = 15 * time.Minute
	}
	c := &Cache{
		entries:     make(map[string]*cacheEntry),
		defaultTTL:  defaultTTL,
		stopCleanup: make(chan struct{}),
	}
	c.cleanupTicker = time.NewTicker(time.Minute)
	go c.cleanup()
	return c
}

func (c *Cache) cleanup() {
	for {
		select {
		case <-c.cleanupTicker.C:
			c.cleanExpired()
		case <-c.stopCleanup:
			c.cleanupTicker.Stop()
			return
		}
	}
}

func (c *Cache) cleanExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for userID, e := range c.entries {
		if now.After(e.expireTime) {
			delete(c.entries, userID)
		}
	}
}

func (c *Cache) Get(userID string) (*core.UserContext, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[userID]
	if !ok || time.Now().After(e.expireTime) {
		return nil, false
	}
	return e.user, true
}

// Set 写入画像；ttl <= 0 时使用默认 TTL。
func (c *Cache) Set(userID string, u *core.UserContext, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = &cacheEntry{
		user:       u,
		expireTime: time.Now().Add(ttl),
	}
}

// Invalidate 失效指定用户的画像，评分写入后调用。
func (c *Cache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Close 停止清理协程。
func (c *Cache) Close() {
	close(c.stopCleanup)
}
