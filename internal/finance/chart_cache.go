package finance

import (
	"sync"
	"time"
)

// Rendered charts are cached briefly so a chat that taps the same replay
// twice does not re-render the PNG.
const chartCacheTTL = 10 * time.Minute

type chartCacheEntry struct {
	createdAt time.Time
	image     []byte
}

var (
	chartCache   = map[string]chartCacheEntry{}
	chartCacheMu sync.Mutex
)

func cacheGet(key string) ([]byte, bool) {
	chartCacheMu.Lock()
	defer chartCacheMu.Unlock()
	if entry, ok := chartCache[key]; ok {
		if time.Now().Before(entry.createdAt.Add(chartCacheTTL)) {
			img := make([]byte, len(entry.image))
			copy(img, entry.image)
			return img, true
		}
	}
	return nil, false
}

func cacheSet(key string, img []byte) {
	chartCacheMu.Lock()
	defer chartCacheMu.Unlock()
	now := time.Now()
	for k, e := range chartCache {
		if now.After(e.createdAt.Add(chartCacheTTL)) {
			delete(chartCache, k)
		}
	}
	chartCache[key] = chartCacheEntry{createdAt: now, image: img}
}
