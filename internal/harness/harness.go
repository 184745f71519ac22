package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/roach88/refset/internal/model"
	"github.com/roach88/refset/internal/schema"
	"github.com/roach88/refset/internal/scopeexpr"
	"github.com/roach88/refset/internal/source"
	"github.com/roach88/refset/internal/store"
)

// Harness runs one scenario against a fresh set of models.
type Harness struct {
	models    map[string]*model.Model
	compilers map[scopeexpr.Engine]*scopeexpr.Compiler
	logger    *slog.Logger
}

// Run executes a scenario and returns its result.
//
// Execution flow:
//  1. Build every model and load its data
//  2. Define expression scopes
//  3. Execute flow steps, checking expect clauses
//  4. Snapshot the final records and evaluate assertions
//
// Errors are returned only when the scenario cannot be set up; failed
// expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	h := &Harness{
		models:    make(map[string]*model.Model, len(scenario.Models)),
		compilers: make(map[scopeexpr.Engine]*scopeexpr.Compiler),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, spec := range scenario.Models {
		m, err := h.buildModel(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("failed to build model %s: %w", spec.Type, err)
		}
		h.models[spec.Type] = m
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		ev := result.AddTrace(h.invoke(step))
		if step.Expect != nil {
			if msg := checkExpect(ev, step.Expect); msg != "" {
				result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Invoke, msg))
			}
		}
	}

	for name, m := range h.models {
		result.State[name] = attributes(m.All().Records())
	}

	st, err := h.snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot state: %w", err)
	}
	defer st.Close()

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) buildModel(ctx context.Context, spec ModelSpec) (*model.Model, error) {
	m := model.New(spec.Type, model.WithLogger(h.logger))

	if err := m.DeclareFields(spec.Fields); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(spec.Defaults))
	for k := range spec.Defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := m.DeclareField(k, schema.WithDefault(spec.Defaults[k])); err != nil {
			return nil, err
		}
	}

	var rows []map[string]any
	if spec.Data != "" {
		ds, err := source.Read(ctx, spec.Data, source.Options{Table: spec.Table})
		if err != nil {
			return nil, err
		}
		rows = append(rows, ds.Rows...)
	}
	rows = append(rows, spec.Rows...)
	if err := m.Load(rows); err != nil {
		return nil, err
	}

	for _, sc := range spec.Scopes {
		engine, err := scopeexpr.ParseEngine(sc.Engine)
		if err != nil {
			return nil, err
		}
		if err := h.compiler(engine).Define(m, sc.Name, sc.Expr); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (h *Harness) compiler(engine scopeexpr.Engine) *scopeexpr.Compiler {
	c, ok := h.compilers[engine]
	if !ok {
		c = scopeexpr.NewCompiler(scopeexpr.WithEngine(engine), scopeexpr.WithLogger(h.logger))
		h.compilers[engine] = c
	}
	return c
}

// invoke makes one call and describes its outcome.
func (h *Harness) invoke(step FlowStep) TraceEvent {
	ev := TraceEvent{Invoke: step.Invoke, Args: step.Args}

	typeName, method, err := splitInvoke(step.Invoke)
	if err != nil {
		return withError(ev, err)
	}
	m, ok := h.models[typeName]
	if !ok {
		return withError(ev, fmt.Errorf("unknown model %q", typeName))
	}

	out, err := call(m, method, step.Args)
	if err != nil {
		return withError(ev, err)
	}
	return withOutcome(ev, out)
}

// call maps the built-in methods onto the Go API and sends everything
// else through Model.Call.
func call(m *model.Model, method string, args []any) (any, error) {
	arg := func(i int) any {
		if i < len(args) {
			return args[i]
		}
		return nil
	}

	switch method {
	case "create", "create_or_fail":
		attrs, err := attrsArg(arg(0))
		if err != nil {
			return nil, err
		}
		if method == "create" {
			return m.Create(attrs)
		}
		return m.CreateOrFail(attrs)
	case "find":
		return m.Find(arg(0))
	case "where":
		attrs, err := attrsArg(arg(0))
		if err != nil {
			return nil, err
		}
		return m.Where(attrs), nil
	case "order":
		clause, _ := arg(0).(string)
		return m.All().OrderBy(clause)
	case "count":
		return m.Count(), nil
	case "pluck":
		fields := make([]string, len(args))
		for i, a := range args {
			fields[i] = fmt.Sprint(a)
		}
		return m.Pluck(fields...), nil
	case "first":
		r, _ := m.First()
		return r, nil
	case "last":
		r, _ := m.Last()
		return r, nil
	case "delete_all":
		m.DeleteAll()
		return nil, nil
	case "reload":
		return nil, m.Reload()
	default:
		out, err := m.Call(method, args...)
		if out == nil && err == nil {
			// a finder miss
			return (*model.Record)(nil), nil
		}
		return out, err
	}
}

func attrsArg(v any) (model.Conditions, error) {
	switch a := v.(type) {
	case map[string]any:
		return a, nil
	case nil:
		return model.Conditions{}, nil
	default:
		return nil, fmt.Errorf("expected a map argument, got %T", v)
	}
}

func withOutcome(ev TraceEvent, out any) TraceEvent {
	switch v := out.(type) {
	case *model.Record:
		if v == nil {
			ev.Case = CaseNone
			return ev
		}
		ev.Case = CaseRecord
		ev.IDs = []any{v.ID()}
	case []*model.Record:
		ev.Case = CaseRecords
		ev.IDs = ids(v)
	case *model.Relation:
		ev.Case = CaseRelation
		ev.IDs = v.IDs()
	case nil:
		ev.Case = CaseOK
	default:
		ev.Case = CaseValue
		ev.Value = v
	}
	return ev
}

func withError(ev TraceEvent, err error) TraceEvent {
	ev.Error = err.Error()

	var unknown *model.UnknownAttributeError
	switch {
	case model.IsNotFound(err):
		ev.Case = CaseNotFound
	case model.IsNoMethod(err):
		ev.Case = CaseNoMethod
	case model.IsIdError(err):
		ev.Case = CaseIDError
	case errors.As(err, &unknown):
		ev.Case = CaseUnknownAttribute
	default:
		ev.Case = CaseError
	}
	return ev
}

func ids(records []*model.Record) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r.ID()
	}
	return out
}

func attributes(records []*model.Record) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, r := range records {
		out[i] = r.Attributes()
	}
	return out
}

// snapshot writes every model's records to an in-memory database.
func (h *Harness) snapshot(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(":memory:", store.WithLogger(h.logger))
	if err != nil {
		return nil, err
	}

	for name, m := range h.models {
		err := st.WriteTable(ctx, store.Table{
			Name:       tableName(name),
			RecordType: name,
			Columns:    m.ColumnNames(),
			Rows:       attributes(m.All().Records()),
		})
		if err != nil {
			st.Close()
			return nil, err
		}
	}
	return st, nil
}
