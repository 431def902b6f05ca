package cache

import "time"

// DecisionCache is the interface for caching authorization decisions.
// Keys identify a (rule snapshot, principal, action, resource) tuple;
// values are the boolean decision for that tuple.
type DecisionCache interface {
	// Get retrieves a cached decision.
	// Returns the decision and true if found, or false and false if not found.
	Get(key string) (bool, bool)

	// Set stores a decision with TTL.
	Set(key string, allowed bool, ttl time.Duration)

	// Clear removes all entries, used when a new rule snapshot is installed.
	Clear()

	// Close releases resources held by the cache.
	Close() error

	// Metrics returns cache statistics.
	Metrics() *Metrics
}

// Metrics holds cache performance statistics.
type Metrics struct {
	// Hits is the number of cache hits
	Hits uint64

	// Misses is the number of cache misses
	Misses uint64

	// KeysAdded is the number of keys added to cache
	KeysAdded uint64

	// KeysEvicted is the number of keys evicted from cache
	KeysEvicted uint64
}
