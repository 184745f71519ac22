package scopeexpr

import (
	"fmt"
	"regexp"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
	celgo "github.com/google/cel-go/cel"
)

// Engine names an expression language.
type Engine string

const (
	// EngineExpr evaluates expressions with github.com/expr-lang/expr.
	EngineExpr Engine = "expr"

	// EngineCEL evaluates expressions with github.com/google/cel-go.
	EngineCEL Engine = "cel"
)

// ParseEngine maps a flag value to an Engine.
func ParseEngine(s string) (Engine, error) {
	switch Engine(s) {
	case EngineExpr, EngineCEL:
		return Engine(s), nil
	case "":
		return EngineExpr, nil
	default:
		return "", fmt.Errorf("unknown expression engine %q (want expr or cel)", s)
	}
}

// Variables bound by every engine in addition to the columns.
const (
	ArgsVar   = "args"
	RecordVar = "record"
)

// Program is a compiled expression. Programs are safe for concurrent use.
type Program interface {
	// Engine returns the engine that compiled the program.
	Engine() Engine

	// Source returns the expression text.
	Source() string

	// Match evaluates the program against env and requires a bool result.
	Match(env map[string]any) (bool, error)
}

func compileProgram(engine Engine, expression string, columns []string) (Program, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	switch engine {
	case EngineExpr:
		return compileExpr(expression)
	case EngineCEL:
		return compileCEL(expression, columns)
	default:
		return nil, fmt.Errorf("unknown expression engine %q", engine)
	}
}

type exprProgram struct {
	source  string
	program *exprvm.Program
}

func compileExpr(expression string) (*exprProgram, error) {
	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, err
	}
	return &exprProgram{source: expression, program: program}, nil
}

func (p *exprProgram) Engine() Engine { return EngineExpr }
func (p *exprProgram) Source() string { return p.source }

func (p *exprProgram) Match(env map[string]any) (bool, error) {
	out, err := exprlang.Run(p.program, env)
	if err != nil {
		return false, err
	}
	return asBool(out)
}

type celProgram struct {
	source  string
	program celgo.Program
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// celReserved are words cel-go will not accept as variable names.
var celReserved = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true, "else": true,
	"false": true, "for": true, "function": true, "if": true, "import": true,
	"in": true, "let": true, "loop": true, "package": true, "namespace": true,
	"null": true, "return": true, "true": true, "var": true, "void": true,
	"while": true,
}

func compileCEL(expression string, columns []string) (*celProgram, error) {
	opts := []celgo.EnvOption{
		celgo.CrossTypeNumericComparisons(true),
		celgo.Variable(ArgsVar, celgo.ListType(celgo.DynType)),
		celgo.Variable(RecordVar, celgo.MapType(celgo.StringType, celgo.DynType)),
	}
	for _, col := range columns {
		if col == ArgsVar || col == RecordVar || celReserved[col] || !identifier.MatchString(col) {
			continue
		}
		opts = append(opts, celgo.Variable(col, celgo.DynType))
	}

	env, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	switch out := ast.OutputType(); {
	case out.IsExactType(celgo.BoolType), out.IsExactType(celgo.DynType):
	default:
		return nil, fmt.Errorf("expression must evaluate to bool, got %s", out)
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	return &celProgram{source: expression, program: prg}, nil
}

func (p *celProgram) Engine() Engine { return EngineCEL }
func (p *celProgram) Source() string { return p.source }

func (p *celProgram) Match(env map[string]any) (bool, error) {
	out, _, err := p.program.Eval(env)
	if err != nil {
		return false, err
	}
	return asBool(out.Value())
}

func asBool(v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expression must evaluate to bool, got %T", v)
	}
	return b, nil
}
