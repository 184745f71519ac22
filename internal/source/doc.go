// Package source reads datasets from files into rows a model can Load.
//
// Supported formats are chosen by extension:
//
//	.yml .yaml  YAML (gopkg.in/yaml.v3)
//	.json       JSON
//	.cue        CUE (cuelang.org/go)
//	.db .sqlite SQLite (through internal/store)
//
// Document formats accept two shapes at the root: a list of row maps, or a
// map of named row maps (the names are dropped, the order is kept where
// the format preserves it). Options.Table selects a key of a root map
// instead, so one file can hold several tables:
//
//	countries:
//	  - {id: 1, name: Canada}
//	currencies:
//	  - {id: USD, name: US Dollar}
//
// For SQLite, Options.Table names the table and Options.Filter goes into
// the SQL query as far as SQLite compares values the way queryir.Match
// does. Every row returned still matches the whole filter.
package source
