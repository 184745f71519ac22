package model

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/refset/internal/hostcompat"
)

// IDGenerator supplies ids for records inserted without one.
// Implemented by UUIDv7IDs (string keys) and FixedIDs (tests). Without a
// generator the model uses max numeric id + 1.
type IDGenerator interface {
	Generate() any
}

// IDPreviewer is implemented by generators that can report their next id
// without consuming it. NextID uses it.
type IDPreviewer interface {
	Peek() (any, bool)
}

// UUIDv7IDs generates time-sortable UUIDv7 ids as hyphenated strings.
//
// UUIDv7IDs is stateless and safe for concurrent use.
type UUIDv7IDs struct{}

// Generate creates a new UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7IDs) Generate() any {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedIDs returns predetermined ids in order, for tests.
//
// Safe for concurrent use via internal mutex.
type FixedIDs struct {
	mu  sync.Mutex
	ids []any
	idx int
}

// NewFixedIDs creates a generator that returns ids in order.
func NewFixedIDs(ids ...any) *FixedIDs {
	return &FixedIDs{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed, which means the test inserted more
// records than it planned for.
func (g *FixedIDs) Generate() any {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedIDs: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// Peek returns the id Generate would return next, or false when every id
// has been used.
func (g *FixedIDs) Peek() (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		return nil, false
	}
	return g.ids[g.idx], true
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger used for load and insert diagnostics.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithHost sets the host collaborator used for type cache keys and
// association naming. Default: hostcompat.Inflector{}.
func WithHost(h hostcompat.Host) Option {
	return func(m *Model) {
		if h != nil {
			m.host = h
		}
	}
}

// WithIDGenerator replaces max+1 id assignment.
func WithIDGenerator(g IDGenerator) Option {
	return func(m *Model) {
		m.idgen = g
	}
}

// WithFinderCacheSize sets how many finder names the model remembers.
// Default: finder.DefaultCacheSize.
func WithFinderCacheSize(n int) Option {
	return func(m *Model) {
		m.finderCacheSize = n
	}
}
