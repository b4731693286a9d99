// internal/storage/result_cache.go
package storage

import (
	"sort"
	"sync"
	"time"
)

// ResultCache 项目分析结果的内存LRU+TTL缓存
// 减少热点项目结果列表的重复磁盘读取
type ResultCache struct {
	entries    map[string]*resultEntry
	mutex      sync.RWMutex
	maxSize    int
	expiration time.Duration
}

type resultEntry struct {
	value     interface{}
	createdAt time.Time
	lastRead  time.Time
}

// NewResultCache 创建结果缓存
func NewResultCache(maxSize int, expiration time.Duration) *ResultCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if expiration <= 0 {
		expiration = 5 * time.Minute
	}
	return &ResultCache{
		entries:    make(map[string]*resultEntry),
		maxSize:    maxSize,
		expiration: expiration,
	}
}

// Get 读取缓存，过期条目视为未命中并顺带删除
func (c *ResultCache) Get(key string) (interface{}, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Since(entry.createdAt) > c.expiration {
		delete(c.entries, key)
		return nil, false
	}

	entry.lastRead = time.Now()
	return entry.value, true
}

// Set 写入缓存，超限时按最少使用淘汰约20%
func (c *ResultCache) Set(key string, value interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	c.entries[key] = &resultEntry{value: value, createdAt: now, lastRead: now}

	if len(c.entries) > c.maxSize {
		toRemove := c.maxSize / 5
		if toRemove < 1 {
			toRemove = 1
		}
		c.cleanupLRU(toRemove)
	}
}

// Delete 删除缓存条目
func (c *ResultCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.entries, key)
}

func (c *ResultCache) cleanupLRU(count int) {
	type keyAge struct {
		key  string
		time time.Time
	}

	entries := make([]keyAge, 0, len(c.entries))
	for k, v := range c.entries {
		entries = append(entries, keyAge{k, v.lastRead})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].time.Before(entries[j].time)
	})

	if count > len(entries) {
		count = len(entries)
	}
	for i := 0; i < count; i++ {
		delete(c.entries, entries[i].key)
	}
}
