package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/refset/internal/store"
)

// readSQLite reads one table. Without Options.Table the database must hold
// exactly one table. Options.Filter is evaluated by Store.ReadMatching.
func readSQLite(ctx context.Context, path string, opts Options, ds *Dataset) error {
	s, err := store.OpenReadOnly(path, store.WithLogger(opts.Logger))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	defer s.Close()

	table := opts.Table
	if table == "" {
		names, err := s.UserTables(ctx)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		switch len(names) {
		case 0:
			return fmt.Errorf("read %s: database has no tables", path)
		case 1:
			table = names[0]
		default:
			return fmt.Errorf("read %s: database has several tables (%s); pick one with a table name", path, strings.Join(names, ", "))
		}
	}
	ds.Table = table

	if info, ok, err := s.Table(ctx, table); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	} else if ok {
		ds.RecordType = info.RecordType
	}

	rows, err := s.ReadMatching(ctx, table, opts.Filter)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	ds.Rows = normalizeRows(rows)
	return nil
}

// Write stores ds's rows as a SQLite table at path, creating the database
// if needed. The table is named ds.Table, or after the record type
// ("Country" becomes "countries").
func Write(ctx context.Context, path string, ds *Dataset, opts ...store.Option) error {
	s, err := store.Open(path, opts...)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	defer s.Close()

	err = s.WriteTable(ctx, store.Table{
		Name:       ds.TableName(),
		RecordType: ds.TypeName(),
		Columns:    ds.Columns(),
		Rows:       ds.Rows,
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
