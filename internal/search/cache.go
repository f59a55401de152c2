package search

// ResultCache bridges the two-phase search protocol: the listing call
// stores completed translations (or failure messages) under opaque result
// ids, and a later describe call reads them back. The cache holds only the
// most recent completed translation intended for immediate follow-up; the
// describe path evicts aggressively.
//
// Access is guarded by the owning orchestrator's mutex.
type ResultCache struct {
	entries map[string]string
}

func newResultCache() *ResultCache {
	return &ResultCache{entries: make(map[string]string)}
}

func (c *ResultCache) put(key, text string) {
	if c.entries == nil {
		c.entries = make(map[string]string)
	}
	c.entries[key] = text
}

func (c *ResultCache) get(key string) (string, bool) {
	text, ok := c.entries[key]
	return text, ok
}

func (c *ResultCache) delete(key string) {
	delete(c.entries, key)
}

func (c *ResultCache) clear() {
	c.entries = make(map[string]string)
}

func (c *ResultCache) len() int {
	return len(c.entries)
}
