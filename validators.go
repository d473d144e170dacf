package persist

import (
	"fmt"

	"github.com/vv3rd/go-persist/internal/decode"
)

// TypedValidator returns a Validator that decodes the raw payload into T and
// runs T's Validate method when implemented.
func TypedValidator[T any](opts ...decode.DecoderOption[T]) Validator[T] {
	decoder := decode.NewDecoder(opts...)
	return func(raw any) (T, error) {
		return decodeSnapshot(decoder, raw)
	}
}

// RuleValidator returns a Validator that checks the raw payload against a
// declarative expression before decoding into T. The expression must evaluate
// to boolean true for the payload to be accepted; it runs with the payload's
// top-level fields bound as variables.
func RuleValidator[T any](evaluator Evaluator, expression string, opts ...decode.DecoderOption[T]) Validator[T] {
	decoder := decode.NewDecoder(opts...)
	return func(raw any) (T, error) {
		var zero T
		if evaluator == nil {
			return zero, fmt.Errorf("persist: evaluator is required")
		}
		result, err := evaluator.Evaluate(RuleContext{Snapshot: raw}, expression)
		if err != nil {
			return zero, err
		}
		accepted, ok := result.(bool)
		if !ok {
			return zero, fmt.Errorf("persist: expression %s returned %T, want bool", describeExpression(expression), result)
		}
		if !accepted {
			return zero, fmt.Errorf("persist: expression %s rejected payload", describeExpression(expression))
		}
		return decodeSnapshot(decoder, raw)
	}
}

func decodeSnapshot[T any](decoder *decode.Decoder[T], raw any) (T, error) {
	var zero T

	if typed, ok := raw.(T); ok {
		if err := validateValue(typed); err != nil {
			return zero, err
		}
		return typed, nil
	}

	payload, ok := raw.(map[string]any)
	if !ok {
		return zero, fmt.Errorf("persist: payload is %T, want %T", raw, zero)
	}
	typed, err := decoder.Decode(decode.Context{}, payload)
	if err != nil {
		return zero, err
	}
	if err := validateValue(typed); err != nil {
		return zero, err
	}
	return typed, nil
}

func validateValue[T any](value T) error {
	if v, ok := any(value).(interface{ Validate() error }); ok {
		return v.Validate()
	}
	if v, ok := any(&value).(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return nil
}
