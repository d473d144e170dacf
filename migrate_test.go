package persist

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"testing"
)

type sessionState struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

func (s sessionState) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func requireField(field, kind string) Validator[map[string]any] {
	return func(raw any) (map[string]any, error) {
		payload, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("payload is %T, want object", raw)
		}
		switch kind {
		case "string":
			if _, ok := payload[field].(string); !ok {
				return nil, fmt.Errorf("field %q is not a string", field)
			}
		case "number":
			if _, ok := payload[field].(float64); !ok {
				return nil, fmt.Errorf("field %q is not a number", field)
			}
		}
		return payload, nil
	}
}

// buildSessionEngine declares a three-version chain:
// v1 stored counts as strings, v2 as bare numbers, v3 is sessionState.
func buildSessionEngine() *Engine[sessionState] {
	current := CurrentVersion(TypedValidator[sessionState]())
	v2 := OlderVersion(current, requireField("count", "number"), func(payload map[string]any) (sessionState, error) {
		return sessionState{Count: int(payload["count"].(float64))}, nil
	})
	v1 := OlderVersion(v2, requireField("count", "string"), func(payload map[string]any) (map[string]any, error) {
		count, err := strconv.Atoi(payload["count"].(string))
		if err != nil {
			return nil, fmt.Errorf("parse count: %w", err)
		}
		return map[string]any{"count": float64(count)}, nil
	})
	return v1.Build()
}

func TestVersionDerivation(t *testing.T) {
	single := CurrentVersion(TypedValidator[sessionState]()).Build()
	if got := single.Version(); got != 1 {
		t.Fatalf("expected version 1 for a current-only chain, got %d", got)
	}
	if got := buildSessionEngine().Version(); got != 3 {
		t.Fatalf("expected version 3 after two older declarations, got %d", got)
	}
}

func TestMigrateValidatesSameVersion(t *testing.T) {
	engine := buildSessionEngine()

	value, ok, err := engine.Migrate(map[string]any{"count": float64(7), "label": "weekly"}, 3)
	if err != nil {
		t.Fatalf("unexpected migrate error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a value, got reset")
	}
	want := sessionState{Count: 7, Label: "weekly"}
	if value != want {
		t.Fatalf("expected %+v, got %+v", want, value)
	}

	// The current-version validator still runs on same-version payloads.
	if _, _, err := engine.Migrate(map[string]any{"count": float64(-1)}, 3); err == nil {
		t.Fatalf("expected validation to reject a negative count")
	}
}

func TestMigrateComposesUpgrades(t *testing.T) {
	engine := buildSessionEngine()

	value, ok, err := engine.Migrate(map[string]any{"count": "123"}, 1)
	if err != nil {
		t.Fatalf("unexpected migrate error: %v", err)
	}
	if !ok {
		t.Fatalf("expected a value, got reset")
	}
	if value.Count != 123 {
		t.Fatalf("expected count 123 after two upgrades, got %d", value.Count)
	}

	value, ok, err = engine.Migrate(map[string]any{"count": float64(9)}, 2)
	if err != nil || !ok {
		t.Fatalf("expected single-step migration to succeed, got ok=%t err=%v", ok, err)
	}
	if value.Count != 9 {
		t.Fatalf("expected count 9, got %d", value.Count)
	}
}

func TestMigrateDowngradeResets(t *testing.T) {
	engine := buildSessionEngine()

	payloads := []any{
		map[string]any{"count": float64(1)},
		map[string]any{"unrelated": true},
		"not even an object",
		nil,
	}
	for _, payload := range payloads {
		if _, ok, err := engine.Migrate(payload, engine.Version()+1); ok || err != nil {
			t.Fatalf("expected silent reset for payload %v, got ok=%t err=%v", payload, ok, err)
		}
	}
}

func TestMigrateWrapsStepFailures(t *testing.T) {
	engine := buildSessionEngine()

	// Validator failure at version 1.
	_, ok, err := engine.Migrate(map[string]any{"count": float64(1)}, 1)
	if ok {
		t.Fatalf("expected failure, got a value")
	}
	if err == nil {
		t.Fatalf("expected a migration error, got reset")
	}
	var migErr *MigrationError
	if !errors.As(err, &migErr) {
		t.Fatalf("expected *MigrationError, got %T", err)
	}
	if migErr.FromVersion != 1 || migErr.ToVersion != 3 {
		t.Fatalf("unexpected version range v%d to v%d", migErr.FromVersion, migErr.ToVersion)
	}
	if migErr.Unwrap() == nil {
		t.Fatalf("expected the raw error as cause")
	}

	// Upgrade failure between versions 1 and 2.
	_, _, err = engine.Migrate(map[string]any{"count": "not a number"}, 1)
	if err == nil {
		t.Fatalf("expected upgrade failure to propagate")
	}
	if !errors.As(err, &migErr) {
		t.Fatalf("expected *MigrationError, got %T", err)
	}

	// Version below the chain is a failure, not a downgrade.
	_, ok, err = engine.Migrate(map[string]any{"count": "1"}, 0)
	if ok || err == nil {
		t.Fatalf("expected version 0 to fail, got ok=%t err=%v", ok, err)
	}
}

func TestMigrateErrorCauseSurvivesWrapping(t *testing.T) {
	cause := errors.New("schema probe failed")
	engine := CurrentVersion(Validator[map[string]any](func(any) (map[string]any, error) {
		return nil, cause
	})).Build()

	_, _, err := engine.Migrate(map[string]any{}, 1)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to survive wrapping, got %v", err)
	}
}

func TestMigrateIsDeterministic(t *testing.T) {
	engine := buildSessionEngine()
	payload := map[string]any{"count": "42"}

	first, ok1, err1 := engine.Migrate(payload, 1)
	second, ok2, err2 := engine.Migrate(payload, 1)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v / %v", err1, err2)
	}
	if ok1 != ok2 || !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %+v / %+v", first, second)
	}
}

func TestCurrentOnlyChain(t *testing.T) {
	engine := CurrentVersion(TypedValidator[sessionState]()).Build()

	value, ok, err := engine.Migrate(map[string]any{"count": float64(3)}, 1)
	if err != nil || !ok {
		t.Fatalf("expected validate-and-return at version 1, got ok=%t err=%v", ok, err)
	}
	if value.Count != 3 {
		t.Fatalf("expected count 3, got %d", value.Count)
	}

	if _, ok, err := engine.Migrate(map[string]any{"count": float64(3)}, 2); ok || err != nil {
		t.Fatalf("expected reset for any other recorded version, got ok=%t err=%v", ok, err)
	}
}
