package scopeexpr

import (
	"errors"
	"fmt"

	"github.com/roach88/refset/internal/value"
)

// EvaluationError carries the engine, the expression and, for runtime
// failures, the id of the record being evaluated.
type EvaluationError struct {
	Engine Engine
	Expr   string

	// RecordID is the id of the record under evaluation; nil for compile
	// errors.
	RecordID any

	Err error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.RecordID == nil {
		return fmt.Sprintf("scopeexpr: %s expr=%q: %v", e.Engine, e.Expr, e.Err)
	}
	return fmt.Sprintf("scopeexpr: %s expr=%q record=%s: %v", e.Engine, e.Expr, value.Stringify(e.RecordID), e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsEvaluationError reports whether err is or wraps an *EvaluationError.
func IsEvaluationError(err error) bool {
	var evalErr *EvaluationError
	return errors.As(err, &evalErr)
}

// wrapError attaches engine and expression metadata to err, filling the
// blanks of an existing *EvaluationError instead of nesting a second one.
func wrapError(engine Engine, expr string, recordID any, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.RecordID == nil {
			evalErr.RecordID = recordID
		}
		return evalErr
	}

	return &EvaluationError{
		Engine:   engine,
		Expr:     expr,
		RecordID: recordID,
		Err:      err,
	}
}
