package pcrego

import (
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	// DefaultExpiration tells NewCache to keep programs for the cache's
	// default lifetime.
	DefaultExpiration = cache.DefaultExpiration
	// NoExpiration creates a cache whose programs never expire.
	NoExpiration = cache.NoExpiration
)

// Cache holds compiled programs keyed by pattern and options. It is safe
// for concurrent use. Two goroutines missing on the same key may both
// compile; the programs they get are equal.
type Cache struct {
	programs *cache.Cache
}

// NewCache creates a cache whose entries live for ttl and are swept every
// cleanup interval. A ttl of NoExpiration keeps entries until Flush.
func NewCache(ttl, cleanup time.Duration) *Cache {
	return &Cache{programs: cache.New(ttl, cleanup)}
}

// Get returns the program for pattern under opts, compiling it on a miss.
// Failed compilations are not cached.
func (c *Cache) Get(pattern string, opts Options) (*Program, error) {
	key := cacheKey(pattern, opts)
	if v, ok := c.programs.Get(key); ok {
		return v.(*Program), nil
	}
	prog, err := Compile(pattern, opts)
	if err != nil {
		return nil, err
	}
	c.programs.Set(key, prog, cache.DefaultExpiration)
	return prog, nil
}

// Len returns the number of cached programs, including expired ones not
// yet swept.
func (c *Cache) Len() int {
	return c.programs.ItemCount()
}

// Flush drops every cached program.
func (c *Cache) Flush() {
	c.programs.Flush()
}

// cacheKey joins the options that change the compiled code with the
// pattern. PreSize and Verbose do not affect the program and are left out.
func cacheKey(pattern string, o Options) string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(uint64(o.Flags), 16))
	for _, n := range []int{int(o.Newline), o.NestLimit, o.MaxSize, o.DuplicateLimit} {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(n))
	}
	b.WriteByte('/')
	b.WriteString(pattern)
	return b.String()
}
