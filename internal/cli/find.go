package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/refset/internal/model"
)

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	data := &DataOptions{}

	cmd := &cobra.Command{
		Use:   "find <file> <finder|id> [args...]",
		Short: "Look records up by id or with a dynamic finder",
		Long: `Look records up with a dynamic finder named after the fields, or by id
when the second argument is not a finder name.

Arguments are read as YAML scalars, so true is a bool and 38 an integer.
find_by_<field> and find_all_by_<field> compare typed values; the other
finders compare values as strings:

  find_by_name Canada             first match
  findByNameAndCode Peru PE       several fields
  find_all_by_active true         every match
  find_by_code! XX                a miss is an error (exit 1)

Examples:
  refset find countries.yml find_by_code CA
  refset find countries.yml findAllByActive true --format json
  refset find currencies.yml USD`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(rootOpts, data, args[0], args[1], args[2:], cmd)
		},
	}

	addDataFlags(cmd, data)
	return cmd
}

func runFind(rootOpts *RootOptions, data *DataOptions, path, name string, rest []string, cmd *cobra.Command) error {
	f := rootOpts.formatter(cmd)
	loaded, err := loadData(cmd.Context(), rootOpts, data, path, f, nil)
	if err != nil {
		return err
	}
	m := loaded.Model
	columns := m.ColumnNames()

	if !m.RespondsTo(name) {
		if len(rest) > 0 {
			return f.Fail(ExitCommandError, ErrCodeNoMethod, fmt.Sprintf("undefined finder '%s' for %s", name, m.Name()), nil)
		}
		r, err := m.Find(name)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeNoRecord, "not found", err)
		}
		return f.Records(columns, []*model.Record{r})
	}

	args := make([]any, len(rest))
	for i, a := range rest {
		args[i] = parseScalar(a)
	}
	f.VerboseLog("calling %s.%s with %d argument(s)", m.Name(), name, len(args))

	out, err := m.Call(name, args...)
	if err != nil {
		return reportCallError(f, err)
	}
	return printCallResult(f, m, columns, out)
}

func printCallResult(f *OutputFormatter, m *model.Model, columns []string, out any) error {
	switch v := out.(type) {
	case *model.Record:
		return f.Records(columns, []*model.Record{v})
	case []*model.Record:
		return f.Records(columns, v)
	case *model.Relation:
		return f.Records(columns, v.Records())
	case nil:
		return f.Fail(ExitFailure, ErrCodeNoRecord, fmt.Sprintf("no %s matches", m.Name()), nil)
	default:
		return f.Success(v)
	}
}

func reportCallError(f *OutputFormatter, err error) error {
	switch {
	case model.IsNotFound(err):
		return f.Fail(ExitFailure, ErrCodeNoRecord, "not found", err)
	case model.IsNoMethod(err):
		return f.Fail(ExitCommandError, ErrCodeNoMethod, "no such finder or scope", err)
	default:
		return f.Fail(ExitFailure, ErrCodeScope, "call failed", err)
	}
}
