// Package cache provides a generic thread-safe LRU cache.
//
// The cache enforces a hard entry limit with least-recently-used eviction
// and invokes an optional callback for every evicted value, which lets
// callers release resources that need explicit teardown (GPU textures,
// file handles).
//
//	c := cache.New[uint64, *Texture](8, func(t *Texture) { t.Destroy() })
//	c.Set(frame.ID(), tex)
//	tex, ok := c.Get(frame.ID())
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
