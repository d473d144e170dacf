package persist

import (
	"errors"
	"fmt"
	"strings"
)

// shapeBudget caps how many characters of a shape descriptor end up inside a
// single-line error message.
const shapeBudget = 256

// MigrationError reports a validator or upgrade failure during Migrate. It
// records the schema version range that was being crossed and a value-free
// shape descriptor of the offending payload, so the message is safe to ship
// to error-tracking sinks.
type MigrationError struct {
	FromVersion int
	ToVersion   int
	Shape       any
	Err         error
}

func (e *MigrationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("persist: migrate schema v%d to v%d: %v (shape: %s)",
		e.FromVersion, e.ToVersion, e.Err, shapeSummary(e.Shape, shapeBudget))
}

func (e *MigrationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine  string
	Expr    string
	Version int
	Err     error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("persist: %s evaluator %s version=%d: %v", e.Engine, describeExpression(e.Expr), e.Version, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "persist:") {
		return err
	}
	return fmt.Errorf("persist: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr string, version int, err error) error {
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
		if evalErr.Version == 0 {
			evalErr.Version = version
		}
		return evalErr
	}

	return &EvaluationError{
		Engine:  engine,
		Expr:    expr,
		Version: version,
		Err:     err,
	}
}
