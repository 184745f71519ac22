package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/refset/internal/model"
	"github.com/roach88/refset/internal/queryir"
	"github.com/roach88/refset/internal/source"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Data DataOptions

	Where  []string
	Not    []string
	Order  string
	Pluck  string
	Limit  int
	Offset int
	Count  bool
	First  bool
	Last   bool
	IDs    bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <file>",
		Short: "Filter, order and project records",
		Long: `Filter, order and project the records of a data file.

Conditions are field=value pairs; values are read as YAML scalars, so
"population=38" is a number, "active=true" a bool, "code=null" matches
missing values and "code=[CA,PE]" matches any listed value.

Examples:
  refset query countries.yml --where active=true --order "name desc"
  refset query countries.yml --not code=null --pluck name,code
  refset query countries.yml --where active=true --count
  refset query world.db --table countries --first --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	addDataFlags(cmd, &opts.Data)
	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "field=value condition (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Not, "not", nil, "field=value exclusion (repeatable)")
	cmd.Flags().StringVarP(&opts.Order, "order", "o", "", `order clause, e.g. "name desc, id"`)
	cmd.Flags().StringVarP(&opts.Pluck, "pluck", "p", "", "comma-separated fields to print instead of records")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of records")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "records to skip")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print the number of matching records")
	cmd.Flags().BoolVar(&opts.First, "first", false, "print only the first record")
	cmd.Flags().BoolVar(&opts.Last, "last", false, "print only the last record")
	cmd.Flags().BoolVar(&opts.IDs, "ids", false, "print only ids")
	cmd.MarkFlagsMutuallyExclusive("count", "first", "last", "ids", "pluck")

	return cmd
}

func runQuery(opts *QueryOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	where, err := parseConditions(opts.Where)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeUsage, "invalid --where", err)
	}
	not, err := parseConditions(opts.Not)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeUsage, "invalid --not", err)
	}

	// SQLite sources run the comparisons the database matches exactly in
	// the query and the rest on the rows read. The model applies every
	// condition again.
	var pushdown queryir.Predicate
	if isSQLite(path, opts.Data.InputFormat) && len(where) > 0 {
		pushdown = queryir.FromConditions(where)
	}

	loaded, err := loadData(cmd.Context(), opts.RootOptions, &opts.Data, path, f, pushdown)
	if err != nil {
		return err
	}
	m := loaded.Model

	rel := m.All()
	if len(where) > 0 {
		rel = rel.Where(where)
	}
	if len(not) > 0 {
		rel = rel.WhereNot(not)
	}
	if opts.Order != "" {
		if rel, err = rel.OrderBy(opts.Order); err != nil {
			return f.Fail(ExitCommandError, ErrCodeUsage, "invalid --order", err)
		}
	}
	if opts.Offset > 0 {
		rel = rel.Offset(opts.Offset)
	}
	if opts.Limit > 0 {
		rel = rel.Limit(opts.Limit)
	}
	f.VerboseLog("query: %s", rel)

	switch {
	case opts.Count:
		if f.Format == "json" {
			return f.Success(map[string]int{"count": rel.Count()})
		}
		return f.Success(rel.Count())
	case opts.IDs:
		return f.Values(rel.IDs())
	case opts.Pluck != "":
		fields := splitList(opts.Pluck)
		for _, field := range fields {
			if !m.HasField(field) {
				return f.Fail(ExitCommandError, ErrCodeUnknownField, fmt.Sprintf("unknown field %q for %s", field, m.Name()), nil)
			}
		}
		return f.Values(rel.Pluck(fields...))
	case opts.First, opts.Last:
		var r *model.Record
		var ok bool
		if opts.First {
			r, ok = rel.First()
		} else {
			r, ok = rel.Last()
		}
		if !ok {
			return f.Fail(ExitFailure, ErrCodeNoRecord, fmt.Sprintf("no %s matches", m.Name()), nil)
		}
		return f.Records(m.ColumnNames(), []*model.Record{r})
	default:
		return f.Records(m.ColumnNames(), rel.Records())
	}
}

func isSQLite(path, inputFormat string) bool {
	if inputFormat != "" {
		format, err := source.ParseFormat(inputFormat)
		return err == nil && format == source.FormatSQLite
	}
	format, ok := source.DetectFormat(path)
	return ok && format == source.FormatSQLite
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
