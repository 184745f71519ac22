package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Type    string   `json:"type"`
	Records int      `json:"records"`
	Columns []string `json:"columns"`

	// Generated lists the ids assigned to rows that had none.
	Generated []any `json:"generated,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	data := &DataOptions{}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a data file loads",
		Long: `Read a data file and load it into a record store, reporting malformed
documents, duplicate ids and reserved field names.

Exit codes:
  0 - The data loads
  1 - The data is invalid (duplicate ids, reserved fields)
  2 - The file cannot be read or parsed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			loaded, err := loadData(cmd.Context(), rootOpts, data, args[0], f, nil)
			if err != nil {
				return err
			}
			return outputValidateSuccess(f, loaded)
		},
	}

	addDataFlags(cmd, data)
	return cmd
}

// outputValidateSuccess reports a dataset that loaded.
func outputValidateSuccess(f *OutputFormatter, loaded *Loaded) error {
	m := loaded.Model

	result := ValidationResult{
		Valid:   true,
		Type:    m.Name(),
		Records: m.Count(),
		Columns: m.ColumnNames(),
	}
	records := m.All().Records()
	for i, row := range loaded.Dataset.Rows {
		if row["id"] == nil && i < len(records) {
			result.Generated = append(result.Generated, records[i].ID())
		}
	}

	if f.Format == "json" {
		return f.Success(result)
	}

	fmt.Fprintf(f.Writer, "✓ %s: %d %s record(s), %d column(s)\n", loaded.Dataset.Path, result.Records, result.Type, len(result.Columns))
	if len(result.Generated) > 0 {
		fmt.Fprintf(f.Writer, "  %d row(s) had no id and were assigned one\n", len(result.Generated))
	}
	return nil
}
