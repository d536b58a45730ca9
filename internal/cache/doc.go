// Package cache implements a single-process, in-memory, fixed-capacity LRU cache.
//
// Goals for this package:
//   - Keep the core data structures explicit: a key index plus a recency list
//     whose links are indices into a preallocated slot arena
//   - O(1) Get/Put/Remove with sentinel-bounded list operations
//   - Be concurrency-safe with one exclusive lock; Get promotes, so there is
//     no shared read path
//   - Report absence as a boolean result, never as an error
//
// The cache does not expire, persist or shard entries. Eviction notification,
// logging and metrics belong to callers, which can observe evictions with
// WithEvictHook.
package cache
