// Package scopeexpr defines scopes as boolean expressions over a record's
// fields instead of Go functions.
//
// Two engines are supported: expr (github.com/expr-lang/expr) and cel
// (github.com/google/cel-go). An expression sees every column of the model
// as a variable, plus:
//
//	id      the record's id
//	args    the arguments of the scope call, as a list
//	record  every attribute of the record, defaults applied, as a map
//
// A record is kept when the expression evaluates to true:
//
//	c := scopeexpr.NewCompiler(scopeexpr.WithEngine(scopeexpr.EngineCEL))
//	err := c.Define(countries, "larger_than", "population > args[0]")
//	rel, err := countries.Scope("larger_than", 100)
//
// The engines differ on names that are not columns: cel rejects them when
// the expression is compiled, expr reads them as nil.
//
// Compiled programs are cached per (engine, expression, columns) in an LRU,
// so a scope called repeatedly compiles once.
package scopeexpr
