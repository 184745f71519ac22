package scopeexpr

import (
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/refset/internal/model"
	"github.com/roach88/refset/internal/queryir"
	"github.com/roach88/refset/internal/value"
)

// DefaultCacheSize is the number of compiled programs a Compiler keeps.
const DefaultCacheSize = 128

// Compiler compiles expressions for one engine and caches the programs.
// A Compiler is safe for concurrent use.
type Compiler struct {
	engine    Engine
	cacheSize int
	cache     *lru.Cache[string, Program]
	logger    *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithEngine selects the expression engine. Default: EngineExpr.
func WithEngine(e Engine) Option {
	return func(c *Compiler) {
		if e != "" {
			c.engine = e
		}
	}
}

// WithCacheSize sets the program cache capacity. Default: DefaultCacheSize.
func WithCacheSize(n int) Option {
	return func(c *Compiler) {
		c.cacheSize = n
	}
}

// WithLogger sets the logger for compile diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCompiler returns a Compiler configured by opts.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		engine:    EngineExpr,
		cacheSize: DefaultCacheSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.cacheSize < 1 {
		c.cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, Program](c.cacheSize)
	if err != nil {
		panic(err) // cacheSize is positive
	}
	c.cache = cache
	return c
}

// Engine returns the compiler's engine.
func (c *Compiler) Engine() Engine {
	return c.engine
}

// Compile compiles expression for a model with the given columns. Errors
// are *EvaluationError.
func (c *Compiler) Compile(expression string, columns []string) (Program, error) {
	key := cacheKey(c.engine, expression, columns)
	if prg, ok := c.cache.Get(key); ok {
		return prg, nil
	}

	prg, err := compileProgram(c.engine, expression, columns)
	if err != nil {
		return nil, wrapError(c.engine, expression, nil, err)
	}
	c.cache.Add(key, prg)
	c.logger.Debug("compiled scope expression",
		"engine", c.engine,
		"expr", expression,
		"columns", len(columns))
	return prg, nil
}

// Len reports the number of cached programs.
func (c *Compiler) Len() int {
	return c.cache.Len()
}

func cacheKey(engine Engine, expression string, columns []string) string {
	return string(engine) + "\x00" + expression + "\x00" + strings.Join(columns, "\x1f")
}

// Scope adapts expression to a model.ScopeFunc. The expression is
// compiled against the columns of the relation's model when the scope is
// called, so fields declared after definition are visible.
func (c *Compiler) Scope(expression string) model.ScopeFunc {
	return func(rel *model.Relation, args ...any) (*model.Relation, error) {
		columns := rel.Model().ColumnNames()
		prg, err := c.Compile(expression, columns)
		if err != nil {
			return nil, err
		}

		callArgs := make([]any, len(args))
		for i, arg := range args {
			callArgs[i] = value.Normalize(arg)
		}

		var evalErr error
		out := rel.WherePredicate(queryir.Func{
			Name: string(c.engine),
			Fn: func(row queryir.Row) bool {
				if evalErr != nil {
					return false
				}
				r, ok := row.(*model.Record)
				if !ok {
					return false
				}
				matched, err := prg.Match(Environment(r, columns, callArgs))
				if err != nil {
					evalErr = wrapError(c.engine, expression, r.ID(), err)
					return false
				}
				return matched
			},
		})
		if evalErr != nil {
			return nil, evalErr
		}
		return out, nil
	}
}

// Define compiles expression against m's current columns and registers it
// as scope name. A compile error leaves m unchanged.
func (c *Compiler) Define(m *model.Model, name, expression string) error {
	if _, err := c.Compile(expression, m.ColumnNames()); err != nil {
		return err
	}
	return m.DefineScope(name, c.Scope(expression))
}

// Environment returns the variables an expression sees for r: every column
// read through its getter, then args and record.
func Environment(r *model.Record, columns []string, args []any) map[string]any {
	env := make(map[string]any, len(columns)+2)
	for _, col := range columns {
		env[col] = r.Read(col)
	}
	if args == nil {
		args = []any{}
	}
	env[ArgsVar] = args
	env[RecordVar] = r.Attributes()
	return env
}
