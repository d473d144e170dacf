package persist

import "fmt"

// Validator decodes and checks a raw persisted payload against the shape one
// schema version expects. Payloads arrive as deserialized JSON, typically
// map[string]any.
type Validator[T any] func(raw any) (T, error)

// Upgrade transforms a value from one schema version to the next newer one.
type Upgrade[From, To any] func(From) (To, error)

// step pairs a version's validator with the upgrade into the next version.
// The current-version step has no upgrade.
type step struct {
	validate func(any) (any, error)
	upgrade  func(any) (any, error)
}

// Chain accumulates migration steps, declared from the current schema
// backwards in time. Latest is the current shape, Oldest the shape of the
// oldest step declared so far. Chains are immutable; every OlderVersion call
// returns a new chain re-parameterized for the next older schema.
type Chain[Latest, Oldest any] struct {
	steps []step
}

// CurrentVersion opens a chain by registering the validator for the newest
// schema as step 1. Validators are only recorded here; they run per
// hydration attempt.
func CurrentVersion[T any](validate Validator[T]) *Chain[T, T] {
	return &Chain[T, T]{steps: []step{{validate: eraseValidator(validate)}}}
}

// OlderVersion prepends a step describing a schema one version older than
// everything declared before it. The upgrade must produce the input shape of
// the previous declaration, which the type parameters enforce at the call
// site: the returned chain only accepts a next OlderVersion whose upgrade
// targets Older.
func OlderVersion[Latest, Prev, Older any](chain *Chain[Latest, Prev], validate Validator[Older], upgrade Upgrade[Older, Prev]) *Chain[Latest, Older] {
	oldest := step{
		validate: eraseValidator(validate),
		upgrade: func(value any) (any, error) {
			if upgrade == nil {
				return nil, fmt.Errorf("persist: upgrade function is nil")
			}
			typed, ok := value.(Older)
			if !ok {
				return nil, fmt.Errorf("persist: upgrade input is %T, want %T", value, typed)
			}
			return upgrade(typed)
		},
	}
	steps := make([]step, 0, len(chain.steps)+1)
	steps = append(steps, oldest)
	steps = append(steps, chain.steps...)
	return &Chain[Latest, Older]{steps: steps}
}

// Build freezes the chain into an Engine. The step list is stored oldest
// first, so index i holds schema version i+1 and the chain length is the
// current version.
func (c *Chain[Latest, Oldest]) Build() *Engine[Latest] {
	steps := make([]step, len(c.steps))
	copy(steps, c.steps)
	return &Engine[Latest]{steps: steps}
}

// Engine replays migration steps to bring persisted payloads up to the
// current schema version. Engines hold no mutable state and are safe to
// share across concurrent hydration attempts.
type Engine[T any] struct {
	steps []step
}

// Version reports the current schema version, derived as the number of
// declared steps. Always >= 1.
func (e *Engine[T]) Version() int {
	return len(e.steps)
}

// Migrate applies the suffix of the chain starting at fromVersion and returns
// the fully validated current-shape value.
//
// The middle result is the reset signal: ok=false with a nil error means the
// record has no upgrade path (it was written by a newer chain) and must be
// discarded by the caller. Validator and upgrade failures are returned as a
// *MigrationError and are never converted into a reset.
//
// A payload already at the current version is still run through the
// current-version validator before being returned.
func (e *Engine[T]) Migrate(data any, fromVersion int) (T, bool, error) {
	var zero T
	current := len(e.steps)
	if fromVersion > current {
		return zero, false, nil
	}
	if fromVersion < 1 {
		return zero, false, &MigrationError{
			FromVersion: fromVersion,
			ToVersion:   current,
			Shape:       ShapeOf(data),
			Err:         fmt.Errorf("no schema registered for version %d", fromVersion),
		}
	}

	value := data
	for version := fromVersion; version <= current; version++ {
		st := e.steps[version-1]
		validated, err := st.validate(value)
		if err != nil {
			return zero, false, &MigrationError{
				FromVersion: version,
				ToVersion:   current,
				Shape:       ShapeOf(value),
				Err:         err,
			}
		}
		value = validated
		if version == current {
			break
		}
		upgraded, err := st.upgrade(value)
		if err != nil {
			return zero, false, &MigrationError{
				FromVersion: version,
				ToVersion:   current,
				Shape:       ShapeOf(value),
				Err:         err,
			}
		}
		value = upgraded
	}

	typed, ok := value.(T)
	if !ok {
		if value == nil {
			// A nil interface never asserts, even when T permits nil.
			return zero, true, nil
		}
		return zero, false, &MigrationError{
			FromVersion: fromVersion,
			ToVersion:   current,
			Shape:       ShapeOf(value),
			Err:         fmt.Errorf("migrated value is %T, not the current schema shape", value),
		}
	}
	return typed, true, nil
}

func eraseValidator[T any](validate Validator[T]) func(any) (any, error) {
	return func(raw any) (any, error) {
		if validate == nil {
			return nil, fmt.Errorf("persist: validator is nil")
		}
		typed, err := validate(raw)
		if err != nil {
			return nil, err
		}
		return typed, nil
	}
}
