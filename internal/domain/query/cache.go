package query

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/searchos/dataview/internal/domain/table"
)

// DefaultCacheCapacity bounds the result cache. Misses only cost re-running
// the query, so the bound stays small.
const DefaultCacheCapacity = 20

// keySep separates the key segments; it can't occur in project or view ids.
const keySep = "\x1f"

// Key builds the cache key for a query: project id + view id + a 64-bit
// hash of the canonicalized request. Filters and their value sets are
// sorted before hashing so two logically identical queries hash identically
// regardless of map iteration order.
func Key(projectID, viewID string, req Request) string {
	var b strings.Builder

	cols := make([]string, 0, len(req.Filters))
	for col := range req.Filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		values := make([]string, 0, len(req.Filters[col]))
		for _, v := range req.Filters[col] {
			values = append(values, strings.TrimSpace(v))
		}
		sort.Strings(values)
		b.WriteString("f:")
		b.WriteString(col)
		b.WriteString("=")
		b.WriteString(strings.Join(values, ","))
		b.WriteString(";")
	}

	for _, s := range req.Sort {
		b.WriteString("s:")
		b.WriteString(s.Column)
		if s.Desc {
			b.WriteString(":desc")
		} else {
			b.WriteString(":asc")
		}
		b.WriteString(";")
	}

	b.WriteString("q:")
	b.WriteString(strings.TrimSpace(req.Search))
	b.WriteString(";c:")
	b.WriteString(strings.Join(req.SearchColumns, ","))

	return projectID + keySep + viewID + keySep + fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}

// ResultCache memoizes resolved (filtered+sorted) row sets per query key.
// It is the only cross-request shared state; one mutex guards lookups,
// population and invalidation so a populate can never race a write's purge.
type ResultCache struct {
	mu       sync.Mutex
	capacity int
	order    []string
	entries  map[string]*table.Table
}

// NewResultCache creates a cache bounded to capacity entries. Non-positive
// capacities fall back to the default.
func NewResultCache(capacity int) *ResultCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &ResultCache{
		capacity: capacity,
		entries:  make(map[string]*table.Table),
	}
}

// Get returns the cached result for the key, if present.
func (c *ResultCache) Get(key string) (*table.Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.entries[key]
	return t, ok
}

// Put stores a result, evicting the oldest-inserted entry on overflow
// (FIFO, deliberately not LRU). If a concurrent populate already stored the
// key, the existing entry wins and is returned.
func (c *ResultCache) Put(key string, t *table.Table) *table.Table {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		return existing
	}
	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = t
	c.order = append(c.order, key)
	return t
}

// InvalidateProject purges every entry belonging to the project. Any write
// is conservatively treated as possibly affecting any view's query result.
func (c *ResultCache) InvalidateProject(projectID string) {
	prefix := projectID + keySep
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.order[:0]
	for _, key := range c.order {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		} else {
			kept = append(kept, key)
		}
	}
	c.order = kept
}

// Len returns the number of cached entries.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
