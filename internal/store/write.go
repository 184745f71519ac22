package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/refset/internal/querysql"
)

// Table is a named set of rows for one record type.
type Table struct {
	// Name is the SQLite table name.
	Name string

	// RecordType is the model name the rows belong to ("Country").
	RecordType string

	// Columns are written in order; the first is usually "id". Row keys not
	// listed are dropped.
	Columns []string

	Rows []map[string]any
}

// WriteTable replaces table t.Name with t's rows and records it in the
// catalog. The write is a single transaction: either the whole table is
// replaced or nothing changes.
func (s *Store) WriteTable(ctx context.Context, t Table) error {
	if t.Name == "" {
		return fmt.Errorf("write table: name must not be empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("write table %s: no columns", t.Name)
	}

	kinds := columnKinds(t.Columns, t.Rows)
	columnsJSON, err := marshalColumns(t.Columns)
	if err != nil {
		return fmt.Errorf("write table %s: %w", t.Name, err)
	}
	kindsJSON, err := marshalKinds(kinds)
	if err != nil {
		return fmt.Errorf("write table %s: %w", t.Name, err)
	}
	hash, err := ContentHash(t.Rows)
	if err != nil {
		return fmt.Errorf("write table %s: %w", t.Name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write table %s: begin: %w", t.Name, err)
	}
	defer tx.Rollback()

	table := querysql.QuoteIdent(t.Name)
	quoted := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		quoted[i] = querysql.QuoteIdent(col)
		marks[i] = "?"
	}

	stmts := []string{
		"DROP TABLE IF EXISTS " + table,
		fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(quoted, ", ")),
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("write table %s: %w", t.Name, err)
		}
	}

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(quoted, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("write table %s: prepare: %w", t.Name, err)
	}
	defer insert.Close()

	for i, row := range t.Rows {
		args := make([]any, len(t.Columns))
		for j, col := range t.Columns {
			args[j], err = encodeValue(row[col], kinds[col])
			if err != nil {
				return fmt.Errorf("write table %s row %d column %s: %w", t.Name, i, col, err)
			}
		}
		if _, err := insert.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("write table %s row %d: %w", t.Name, i, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO refset_tables (name, record_type, columns, kinds, row_count, content_hash, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM refset_tables))
		ON CONFLICT(name) DO UPDATE SET
			record_type = excluded.record_type,
			columns = excluded.columns,
			kinds = excluded.kinds,
			row_count = excluded.row_count,
			content_hash = excluded.content_hash,
			seq = excluded.seq
	`, t.Name, t.RecordType, columnsJSON, kindsJSON, len(t.Rows), hash)
	if err != nil {
		return fmt.Errorf("write table %s: catalog: %w", t.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write table %s: commit: %w", t.Name, err)
	}
	s.logger.Debug("table written", "table", t.Name, "type", t.RecordType, "rows", len(t.Rows))
	return nil
}
