package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/refset/internal/scopeexpr"
)

// ScopeOptions holds flags for the scope command.
type ScopeOptions struct {
	*RootOptions
	Data DataOptions

	Define []string
	Engine string
	Order  string
}

// NewScopeCommand creates the scope command.
func NewScopeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScopeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scope <file> <name> [args...]",
		Short: "Define expression scopes and call one",
		Long: `Define named scopes from expressions and call one of them.

Expressions see every column and "id" as variables, the scope arguments
as "args" and the whole record as "record". Arguments are read as YAML
scalars. The expr engine reads unknown names as nil; cel rejects them.

Examples:
  refset scope countries.yml big --define 'big=population > 100'
  refset scope countries.yml larger --define 'larger=population > args[0]' 50
  refset scope countries.yml listed --engine cel \
      --define 'listed=code in ["CA", "PE"]'`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScope(opts, args[0], args[1], args[2:], cmd)
		},
	}

	addDataFlags(cmd, &opts.Data)
	cmd.Flags().StringArrayVarP(&opts.Define, "define", "d", nil, "name=expression scope definition (repeatable)")
	cmd.Flags().StringVar(&opts.Engine, "engine", string(scopeexpr.EngineExpr), "expression engine (expr|cel)")
	cmd.Flags().StringVarP(&opts.Order, "order", "o", "", "order clause for the result")

	return cmd
}

func runScope(opts *ScopeOptions, path, name string, rest []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	engine, err := scopeexpr.ParseEngine(opts.Engine)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeUsage, "invalid --engine", err)
	}

	loaded, err := loadData(cmd.Context(), opts.RootOptions, &opts.Data, path, f, nil)
	if err != nil {
		return err
	}
	m := loaded.Model

	compiler := scopeexpr.NewCompiler(scopeexpr.WithEngine(engine), scopeexpr.WithLogger(opts.logger()))
	for _, def := range opts.Define {
		scopeName, expression, ok := strings.Cut(def, "=")
		scopeName = strings.TrimSpace(scopeName)
		if !ok || scopeName == "" {
			return f.Fail(ExitCommandError, ErrCodeUsage, fmt.Sprintf("definition %q must be name=expression", def), nil)
		}
		if err := compiler.Define(m, scopeName, expression); err != nil {
			return f.Fail(ExitCommandError, ErrCodeScope, fmt.Sprintf("cannot define scope %s", scopeName), err)
		}
		f.VerboseLog("defined scope %s.%s (%s)", m.Name(), scopeName, engine)
	}

	if !m.HasScope(name) {
		return f.Fail(ExitCommandError, ErrCodeNoMethod, fmt.Sprintf("undefined scope '%s' for %s (defined: %s)", name, m.Name(), strings.Join(m.Scopes(), ", ")), nil)
	}

	rel, err := m.Scope(name, parseArgs(rest)...)
	if err != nil {
		return reportCallError(f, err)
	}
	if opts.Order != "" {
		if rel, err = rel.OrderBy(opts.Order); err != nil {
			return f.Fail(ExitCommandError, ErrCodeUsage, "invalid --order", err)
		}
	}
	return f.Records(m.ColumnNames(), rel.Records())
}
