package cache

// Option configures a Cache at construction time.
type Option[K comparable, V any] func(*Cache[K, V])

// WithEvictHook registers fn to be called for every entry dropped to make
// room for a new key. Remove and Clear do not trigger it.
//
// fn runs after the cache lock has been released, so it may call back into
// the cache.
func WithEvictHook[K comparable, V any](fn func(key K, value V)) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.onEvict = fn
	}
}
