package finder

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of finder names a Parser remembers.
const DefaultCacheSize = 256

// Parser is Parse with an LRU cache in front. Misses are cached too, since
// capability checks repeatedly ask about names that are not finders.
//
// A Parser is safe for concurrent use.
type Parser struct {
	cache *lru.Cache[string, []Config]
}

// NewParser returns a Parser remembering up to size names. A size below one
// uses DefaultCacheSize.
func NewParser(size int) *Parser {
	if size < 1 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []Config](size)
	if err != nil {
		panic(err) // size is always positive here
	}
	return &Parser{cache: cache}
}

// Parse is the cached form of the package-level Parse. The returned Config
// owns its Segments slice.
func (p *Parser) Parse(name string) (Config, bool) {
	readings := p.Readings(name)
	if len(readings) == 0 {
		return Config{}, false
	}
	return readings[0], true
}

// Readings is the cached form of the package-level Readings. The returned
// Configs own their Segments slices.
func (p *Parser) Readings(name string) []Config {
	readings, ok := p.cache.Get(name)
	if !ok {
		readings = Readings(name)
		p.cache.Add(name, readings)
	}
	out := make([]Config, len(readings))
	for i, cfg := range readings {
		out[i] = cfg.clone()
	}
	return out
}

// Len reports the number of cached names.
func (p *Parser) Len() int {
	return p.cache.Len()
}

func (c Config) clone() Config {
	if c.Segments != nil {
		c.Segments = append([]string(nil), c.Segments...)
	}
	return c
}
