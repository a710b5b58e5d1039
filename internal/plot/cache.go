package plot

import "sync"

type cached struct {
	fn  *Function
	err error
}

// Cache holds compiled functions by source text. Compile failures are cached
// as well so a bad equation is reported once.
type Cache struct {
	mu sync.Mutex
	m  map[string]cached
}

func NewCache() *Cache {
	return &Cache{m: make(map[string]cached)}
}

// Get returns the compiled function for source. fresh is true when this call
// compiled it.
func (c *Cache) Get(source string) (fn *Function, fresh bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.m[source]; ok {
		return e.fn, false, e.err
	}
	fn, err = Compile(source)
	c.m[source] = cached{fn: fn, err: err}
	return fn, true, err
}

// Retain drops every entry whose source is not in keep.
func (c *Cache) Retain(keep []string) {
	set := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		set[k] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.m {
		if _, ok := set[k]; !ok {
			delete(c.m, k)
		}
	}
}
