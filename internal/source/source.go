package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/refset/internal/hostcompat"
	"github.com/roach88/refset/internal/queryir"
	"github.com/roach88/refset/internal/value"
)

// Format is a dataset encoding.
type Format string

const (
	FormatYAML   Format = "yaml"
	FormatJSON   Format = "json"
	FormatCUE    Format = "cue"
	FormatSQLite Format = "sqlite"
)

var extensions = map[string]Format{
	".yml":    FormatYAML,
	".yaml":   FormatYAML,
	".json":   FormatJSON,
	".cue":    FormatCUE,
	".db":     FormatSQLite,
	".sqlite": FormatSQLite,
}

// DetectFormat returns the format path's extension names.
func DetectFormat(path string) (Format, bool) {
	f, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// ParseFormat maps a flag value to a Format. The empty string is valid and
// means "detect from the extension".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", FormatYAML, FormatJSON, FormatCUE, FormatSQLite:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want yaml, json, cue or sqlite)", s)
	}
}

// Options controls Read.
type Options struct {
	// Format overrides extension detection. A file whose extension names
	// another format fails with *FileTypeMismatchError.
	Format Format

	// Table selects a key of a document's root map, or a SQLite table.
	Table string

	// Filter keeps only matching rows. For SQLite the comparisons the
	// database evaluates the same way run in the query.
	Filter queryir.Predicate

	// Logger receives SQLite store diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Dataset is the result of Read.
type Dataset struct {
	Path   string
	Format Format

	// Table is the selected table or document key; empty for whole
	// documents.
	Table string

	// RecordType is the model name recorded alongside a SQLite table
	// written by refset; empty otherwise.
	RecordType string

	Rows []map[string]any
}

// Read loads the dataset at path. Rows are normalized the way records
// store values.
func Read(ctx context.Context, path string, opts Options) (*Dataset, error) {
	format, err := resolveFormat(path, opts.Format)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Path: path, Format: format, Table: opts.Table}

	if format == FormatSQLite {
		if err := readSQLite(ctx, path, opts, ds); err != nil {
			return nil, err
		}
		return ds, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var rows []map[string]any
	switch format {
	case FormatYAML:
		rows, err = decodeYAML(path, data, opts.Table)
	case FormatJSON:
		rows, err = decodeJSON(path, data, opts.Table)
	case FormatCUE:
		rows, err = decodeCUE(path, data, opts.Table)
	}
	if err != nil {
		return nil, err
	}

	ds.Rows = filterRows(normalizeRows(rows), opts.Filter)
	return ds, nil
}

func resolveFormat(path string, requested Format) (Format, error) {
	detected, ok := DetectFormat(path)
	switch {
	case requested == "" && !ok:
		return "", fmt.Errorf("%s: cannot tell the format from the extension %q", path, filepath.Ext(path))
	case requested == "":
		return detected, nil
	case ok && detected != requested:
		return "", &FileTypeMismatchError{Path: path, Requested: requested, Detected: detected}
	default:
		return requested, nil
	}
}

func normalizeRows(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = value.NormalizeRow(row)
		if out[i] == nil {
			out[i] = map[string]any{}
		}
	}
	return out
}

// mapRow adapts a plain row to queryir.Row.
type mapRow map[string]any

func (r mapRow) Read(field string) any { return r[field] }

func filterRows(rows []map[string]any, p queryir.Predicate) []map[string]any {
	if p == nil {
		return rows
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if queryir.Match(p, mapRow(row)) {
			out = append(out, row)
		}
	}
	return out
}

// Columns returns "id" followed by every other key in the rows, in
// first-seen order with keys sorted within a row.
func (d *Dataset) Columns() []string {
	cols := []string{"id"}
	seen := map[string]bool{"id": true}
	for _, row := range d.Rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			if !seen[k] {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			seen[k] = true
			cols = append(cols, k)
		}
	}
	return cols
}

// TypeName is the record type for the dataset: the recorded one when
// present, otherwise derived from the table or file name ("countries.yml"
// becomes "Country").
func (d *Dataset) TypeName() string {
	if d.RecordType != "" {
		return d.RecordType
	}
	base := d.Table
	if base == "" {
		base = strings.TrimSuffix(filepath.Base(d.Path), filepath.Ext(d.Path))
	}
	return hostcompat.Classify(base)
}

// TableName is the SQLite table the dataset is written to: Table when
// set, otherwise the pluralized type name.
func (d *Dataset) TableName() string {
	if d.Table != "" {
		return d.Table
	}
	return hostcompat.Tableize(d.TypeName())
}
