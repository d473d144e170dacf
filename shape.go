package persist

import (
	"encoding/json"
	"fmt"
)

// ShapeOf derives a value-free descriptor of a payload: primitives map to
// their type tag, slices to "array of <element shape>", and keyed structures
// to a map of key to element shape. The descriptor carries no payload values
// and is safe to attach to diagnostics.
func ShapeOf(value any) any {
	switch typed := value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		json.Number:
		return "number"
	case []any:
		if len(typed) == 0 {
			return "array of undefined"
		}
		return "array of " + shapeLabel(ShapeOf(typed[0]))
	case map[string]any:
		shape := make(map[string]any, len(typed))
		for key, element := range typed {
			shape[key] = ShapeOf(element)
		}
		return shape
	default:
		return fmt.Sprintf("%T", value)
	}
}

func shapeLabel(shape any) string {
	if tag, ok := shape.(string); ok {
		return tag
	}
	raw, err := json.Marshal(shape)
	if err != nil {
		return fmt.Sprintf("%v", shape)
	}
	return string(raw)
}

// shapeSummary renders a descriptor for inclusion in a single-line message,
// truncated to budget characters.
func shapeSummary(shape any, budget int) string {
	summary := shapeLabel(shape)
	if budget > 0 && len(summary) > budget {
		summary = summary[:budget] + "..."
	}
	return summary
}
