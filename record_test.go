package persist

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRecordRoundTrip(t *testing.T) {
	record := EncodeRecord(4, `{"count":1}`)
	if record != `4|{"count":1}` {
		t.Fatalf("unexpected record encoding %q", record)
	}

	version, payload, err := DecodeRecord(record)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if version != 4 || payload != `{"count":1}` {
		t.Fatalf("expected (4, payload), got (%d, %q)", version, payload)
	}
}

func TestDecodeRecordPayloadMayContainSeparator(t *testing.T) {
	version, payload, err := DecodeRecord(`2|{"note":"a|b|c"}`)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if version != 2 || payload != `{"note":"a|b|c"}` {
		t.Fatalf("expected only the first separator to split, got (%d, %q)", version, payload)
	}
}

func TestDecodeRecordRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name   string
		record string
	}{
		{"missing separator", `{"count":1}`},
		{"empty version", `|{"count":1}`},
		{"non-integer version", `abc|{"count":1}`},
		{"empty record", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := DecodeRecord(tc.record); !errors.Is(err, ErrBadRecord) {
				t.Fatalf("expected ErrBadRecord, got %v", err)
			}
		})
	}
}

func TestJSONSerializerRoundTrip(t *testing.T) {
	serializer := JSONSerializer{}

	payload, err := serializer.Marshal(map[string]any{"count": 3})
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	value, err := serializer.Unmarshal(payload)
	if err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	decoded, ok := value.(map[string]any)
	if !ok {
		t.Fatalf("expected object, got %T", value)
	}
	if decoded["count"] != float64(3) {
		t.Fatalf("expected numeric field, got %v", decoded["count"])
	}
}

func TestJSONSerializerUseNumber(t *testing.T) {
	serializer := JSONSerializer{UseNumber: true}

	value, err := serializer.Unmarshal(`{"id":9007199254740993}`)
	if err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	decoded := value.(map[string]any)
	number, ok := decoded["id"].(json.Number)
	if !ok {
		t.Fatalf("expected json.Number, got %T", decoded["id"])
	}
	if number.String() != "9007199254740993" {
		t.Fatalf("expected precision preserved, got %s", number)
	}
}
