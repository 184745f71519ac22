package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/refset/internal/source"
	"github.com/roach88/refset/internal/store"
)

// ExportResult is the JSON payload of the export command.
type ExportResult struct {
	Output  string `json:"output"`
	Table   string `json:"table"`
	Type    string `json:"type"`
	Records int    `json:"records"`
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	data := &DataOptions{}
	var outTable string

	cmd := &cobra.Command{
		Use:   "export <file> <out.db>",
		Short: "Write a data file into a SQLite database",
		Long: `Load a data file and write its records into a SQLite database, one
table per record type. Rows without an id get a generated one first, so
the exported table always has a usable id column. An existing table of
the same name is replaced.

Examples:
  refset export countries.yml world.db
  refset export world.yml world.db --table currencies --out-table money`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			loaded, err := loadData(cmd.Context(), rootOpts, data, args[0], f, nil)
			if err != nil {
				return err
			}
			m := loaded.Model

			records := m.All().Records()
			rows := make([]map[string]any, len(records))
			for i, r := range records {
				rows[i] = r.Attributes()
			}
			ds := &source.Dataset{
				Path:       args[1],
				Format:     source.FormatSQLite,
				Table:      outTable,
				RecordType: m.Name(),
				Rows:       rows,
			}
			if err := source.Write(cmd.Context(), args[1], ds, store.WithLogger(rootOpts.logger())); err != nil {
				return f.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("cannot export to %s", args[1]), err)
			}

			table := ds.TableName()
			f.VerboseLog("wrote %d %s record(s) to %s.%s", len(rows), m.Name(), args[1], table)

			if f.Format == "json" {
				return f.Success(ExportResult{Output: args[1], Table: table, Type: m.Name(), Records: len(rows)})
			}
			fmt.Fprintf(f.Writer, "✓ exported %d %s record(s) to %s (table %s)\n", len(rows), m.Name(), args[1], table)
			return nil
		},
	}

	addDataFlags(cmd, data)
	cmd.Flags().StringVar(&outTable, "out-table", "", "table to write (default: the pluralized type name)")
	return cmd
}
