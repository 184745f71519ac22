package model

import (
	"github.com/roach88/refset/internal/finder"
	"github.com/roach88/refset/internal/value"
)

// RespondsTo reports whether Call can resolve name: a registered scope, or
// a finder whose every field segment names a declared field or the id. No
// records are examined.
func (m *Model) RespondsTo(name string) bool {
	if m.HasScope(name) {
		return true
	}
	_, ok := m.resolveFinder(name)
	return ok
}

// Call invokes a scope or a dynamic finder by name.
//
// Scopes return a *Relation. Finders zip their fields with args (missing
// arguments are nil) and select the records whose field values equal the
// arguments as strings, in store order. The per-field finders
// find_by_<field> and find_all_by_<field> compare typed values instead, so
// find_by_population("100") misses a population of 100:
//
//   - findAllBy...: []*Record, possibly empty
//   - findBy...: *Record, or nil on a miss
//   - findBy...Bang: *Record, or *RecordNotFound on a miss
//
// Names that resolve to neither fail with *NoMethodError.
func (m *Model) Call(name string, args ...any) (any, error) {
	if m.HasScope(name) {
		rel, err := m.Scope(name, args...)
		if err != nil {
			return nil, err
		}
		return rel, nil
	}

	cfg, ok := m.resolveFinder(name)
	if !ok {
		return nil, &NoMethodError{Model: m.name, Method: name}
	}

	criteria := make([]Criterion, len(cfg.Segments))
	for i, field := range cfg.Segments {
		var arg any
		if i < len(args) {
			arg = args[i]
		}
		criteria[i] = Criterion{Field: field, Value: arg}
	}

	equal := value.StringEqual
	if isFieldFinder(name, cfg) {
		equal = value.Equal
	}
	matches := m.All().Filter(func(r *Record) bool {
		for _, c := range criteria {
			if !equal(r.Read(c.Field), c.Value) {
				return false
			}
		}
		return true
	})

	if cfg.All {
		return matches.Records(), nil
	}
	if r, ok := matches.First(); ok {
		return r, nil
	}
	if cfg.Bang {
		return nil, &RecordNotFound{Model: m.name, PrimaryKey: m.PrimaryKey(), Criteria: criteria}
	}
	return nil, nil
}

// isFieldFinder reports whether name is the per-field finder of its single
// resolved field, spelled exactly find_by_<field> or find_all_by_<field>.
func isFieldFinder(name string, cfg finder.Config) bool {
	if len(cfg.Segments) != 1 || cfg.Bang {
		return false
	}
	prefix := "find_by_"
	if cfg.All {
		prefix = "find_all_by_"
	}
	return name == prefix+cfg.Segments[0]
}

// resolveFinder parses name and maps its segments to field names, taking
// the first reading whose segments all resolve. The returned Config's
// Segments hold resolved field names.
func (m *Model) resolveFinder(name string) (finder.Config, bool) {
	readings := m.finders.Readings(name)
	if len(readings) == 0 {
		return finder.Config{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, cfg := range readings {
		if m.resolveSegments(cfg.Segments) {
			return cfg, true
		}
	}
	return finder.Config{}, false
}

// resolveSegments replaces each segment with its field name in place.
// Callers hold m.mu.
func (m *Model) resolveSegments(segments []string) bool {
	fields := make([]string, len(segments))
	for i, seg := range segments {
		field, ok := m.schema.Resolve(seg)
		if !ok {
			return false
		}
		fields[i] = field
	}
	copy(segments, fields)
	return true
}
