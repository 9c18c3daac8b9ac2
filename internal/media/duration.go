package media

import "sync"

// DurationCache caches media file durations to avoid repeated ffprobe calls.
type DurationCache struct {
	mu        sync.RWMutex
	durations map[string]float64
}

// NewDurationCache creates a new duration cache.
func NewDurationCache() *DurationCache {
	return &DurationCache{
		durations: make(map[string]float64),
	}
}

// Get retrieves a cached duration.
func (c *DurationCache) Get(path string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.durations[path]
	return d, ok
}

// Set stores a duration.
func (c *DurationCache) Set(path string, duration float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durations[path] = duration
}

// Invalidate removes a path from the cache. Call after rewriting a file.
func (c *DurationCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.durations, path)
}
