package cache

import "time"

// Cache is a TTL key/value store.
type Cache interface {
	// Get returns (value, true) if found, (nil, false) otherwise.
	Get(key string) (interface{}, bool)

	// Set stores a value with a TTL. It may drop the write under pressure.
	Set(key string, value interface{}, ttl time.Duration) bool

	Delete(key string)
	Clear()
	Close()

	// Wait blocks until pending writes are visible to Get.
	Wait()
}
