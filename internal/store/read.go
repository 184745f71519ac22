package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/refset/internal/querysql"
)

// TableInfo is a catalog entry.
type TableInfo struct {
	Name        string
	RecordType  string
	Columns     []string
	Kinds       map[string]Kind
	RowCount    int
	ContentHash string
	Seq         int64
}

const catalogTable = "refset_tables"

// ErrNoTable is returned when reading a table that does not exist.
var ErrNoTable = errors.New("no such table")

// Tables returns the catalog, ordered by write sequence.
//
// Returns an empty slice (not nil) if no tables were written.
func (s *Store) Tables(ctx context.Context) ([]TableInfo, error) {
	if ok, err := s.Exists(ctx, catalogTable); err != nil || !ok {
		return []TableInfo{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, record_type, columns, kinds, row_count, content_hash, seq
		FROM refset_tables
		ORDER BY seq ASC, name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	tables := []TableInfo{}
	for rows.Next() {
		info, err := scanTableInfo(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

// Table returns the catalog entry for name. The second result is false for
// tables refset did not write.
func (s *Store) Table(ctx context.Context, name string) (TableInfo, bool, error) {
	if ok, err := s.Exists(ctx, catalogTable); err != nil || !ok {
		return TableInfo{}, false, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT name, record_type, columns, kinds, row_count, content_hash, seq
		FROM refset_tables
		WHERE name = ?
	`, name)
	info, err := scanTableInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TableInfo{}, false, nil
	}
	if err != nil {
		return TableInfo{}, false, err
	}
	return info, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTableInfo(row scanner) (TableInfo, error) {
	var (
		info                   TableInfo
		columnsJSON, kindsJSON string
	)
	err := row.Scan(&info.Name, &info.RecordType, &columnsJSON, &kindsJSON, &info.RowCount, &info.ContentHash, &info.Seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TableInfo{}, err
		}
		return TableInfo{}, fmt.Errorf("scan table info: %w", err)
	}
	if info.Columns, err = unmarshalColumns(columnsJSON); err != nil {
		return TableInfo{}, err
	}
	if info.Kinds, err = unmarshalKinds(kindsJSON); err != nil {
		return TableInfo{}, err
	}
	return info, nil
}

// Exists reports whether a table named name exists, catalogued or not.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query sqlite_master: %w", err)
	}
	return n > 0, nil
}

// UserTables lists every table except the catalog and SQLite's own, by
// name.
func (s *Store) UserTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name != ? AND name NOT LIKE 'sqlite_%'
		ORDER BY name COLLATE BINARY ASC
	`, catalogTable)
	if err != nil {
		return nil, fmt.Errorf("query sqlite_master: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table names: %w", err)
	}
	return names, nil
}

// ReadTable runs q and returns one map per row, keyed by column name.
// Values are decoded per the catalog when the table has an entry; NULL
// columns are present with a nil value.
//
// Returns an empty slice (not nil) if no rows match.
func (s *Store) ReadTable(ctx context.Context, q querysql.Select) ([]map[string]any, error) {
	ok, err := s.Exists(ctx, q.Table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("read table %s: %w", q.Table, ErrNoTable)
	}

	info, _, err := s.Table(ctx, q.Table)
	if err != nil {
		return nil, err
	}

	query, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", q.Table, err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", q.Table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read table %s: columns: %w", q.Table, err)
	}

	out := []map[string]any{}
	for rows.Next() {
		raw := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range raw {
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("read table %s: scan: %w", q.Table, err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			v, err := decodeValue(raw[i], info.Kinds[col])
			if err != nil {
				return nil, fmt.Errorf("read table %s row %d column %s: %w", q.Table, len(out), col, err)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %s: iterate: %w", q.Table, err)
	}
	return out, nil
}

// Column describes how a table column holds its values.
type Column struct {
	// Kind is the catalog encoding; KindNative for uncatalogued tables.
	Kind Kind

	// Classes lists the distinct SQLite storage classes of the non-NULL
	// values ("integer", "real", "text", "blob"), sorted.
	Classes []string
}

// Columns describes every column of table, keyed by name.
func (s *Store) Columns(ctx context.Context, table string) (map[string]Column, error) {
	info, _, err := s.Table(ctx, table)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("columns of %s: scan: %w", table, err)
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("columns of %s: %w", table, ErrNoTable)
	}

	out := make(map[string]Column, len(names))
	for _, name := range names {
		classes, err := s.storageClasses(ctx, table, name)
		if err != nil {
			return nil, err
		}
		out[name] = Column{Kind: info.Kinds[name], Classes: classes}
	}
	return out, nil
}

func (s *Store) storageClasses(ctx context.Context, table, column string) ([]string, error) {
	col := querysql.QuoteIdent(column)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT DISTINCT typeof(%s) AS class FROM %s WHERE %s IS NOT NULL ORDER BY class",
		col, querysql.QuoteIdent(table), col))
	if err != nil {
		return nil, fmt.Errorf("storage classes of %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	classes := []string{}
	for rows.Next() {
		var class string
		if err := rows.Scan(&class); err != nil {
			return nil, fmt.Errorf("storage classes of %s.%s: scan: %w", table, column, err)
		}
		classes = append(classes, class)
	}
	return classes, rows.Err()
}
