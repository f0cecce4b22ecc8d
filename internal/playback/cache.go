package playback

import (
	"context"
	"sync"
)

// MemoryCache is a process-local Cache, used when Redis is not configured.
type MemoryCache struct {
	mu    sync.RWMutex
	etags map[int]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{etags: make(map[int]string)}
}

func (c *MemoryCache) GetETag(_ context.Context, screenID int) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.etags[screenID], nil
}

func (c *MemoryCache) SetETag(_ context.Context, screenID int, etag string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.etags[screenID] = etag
	return nil
}

func (c *MemoryCache) DeleteETags(_ context.Context, screenIDs ...int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range screenIDs {
		delete(c.etags, id)
	}
	return nil
}
