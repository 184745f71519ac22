package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// FieldsResult is the JSON payload of the fields command.
type FieldsResult struct {
	Type    string   `json:"type"`
	Columns []string `json:"columns"`
}

// NewFieldsCommand creates the fields command.
func NewFieldsCommand(rootOpts *RootOptions) *cobra.Command {
	data := &DataOptions{}

	cmd := &cobra.Command{
		Use:   "fields <file>",
		Short: "List the columns of a data file",
		Long: `List the columns of a data file: "id" followed by every field, in the
order fields first appear in the rows.

Example:
  refset fields countries.yml
  refset fields world.db --table currencies --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			loaded, err := loadData(cmd.Context(), rootOpts, data, args[0], f, nil)
			if err != nil {
				return err
			}

			columns := loaded.Model.ColumnNames()
			if f.Format == "json" {
				return f.Success(FieldsResult{Type: loaded.Model.Name(), Columns: columns})
			}
			for _, c := range columns {
				fmt.Fprintln(f.Writer, c)
			}
			return nil
		},
	}

	addDataFlags(cmd, data)
	return cmd
}
