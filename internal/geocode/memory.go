package geocode

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryCache 进程内热点层（LRU）；作为 ChainCache 的首层或测试用缓存
type MemoryCache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, Entry]
}

func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{lru: c}, nil
}

func (m *MemoryCache) Get(_ context.Context, key string) (Entry, bool, error) {
	e, ok := m.lru.Get(key)
	return e, ok, nil
}

func (m *MemoryCache) Put(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.lru.Peek(e.Key); ok && !replaces(cur, e) {
		return nil
	}
	m.lru.Add(e.Key, e)
	return nil
}

// Len 当前条目数
func (m *MemoryCache) Len() int { return m.lru.Len() }
