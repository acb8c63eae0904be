package cache

import (
	"strings"
	"time"

	c "github.com/patrickmn/go-cache"

	"github.com/fernandosegrr/Webhook-HUB/graph"
)

// LayoutCache memoizes computed layouts per workflow revision and
// execution. Cached layouts are shared between readers and must not be
// modified.
type LayoutCache struct {
	cache *c.Cache
}

func NewLayoutCache(ttl time.Duration) *LayoutCache {
	return &LayoutCache{
		cache: c.New(ttl, 10*time.Minute),
	}
}

func LayoutKey(server, workflowRevision, executionId string) string {
	return strings.Join([]string{server, workflowRevision, executionId}, "|")
}

func (ch *LayoutCache) SaveLayout(key string, layout *graph.Layout) {
	ch.cache.Set(key, layout, c.DefaultExpiration)
}

func (ch *LayoutCache) GetLayout(key string) (*graph.Layout, bool) {
	v, found := ch.cache.Get(key)
	if !found {
		return nil, false
	}
	layout, ok := v.(*graph.Layout)
	return layout, ok
}

// GetOrBuild returns the cached layout for key, building and caching it
// with build on a miss. The second result reports a cache hit.
func (ch *LayoutCache) GetOrBuild(key string, build func() *graph.Layout) (*graph.Layout, bool) {
	if layout, ok := ch.GetLayout(key); ok {
		return layout, true
	}
	layout := build()
	ch.SaveLayout(key, layout)
	return layout, false
}

func (ch *LayoutCache) Len() int {
	return ch.cache.ItemCount()
}
