package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// RecordSeparator splits the version prefix from the serialized payload in a
// stored record. It can never appear inside a valid version integer.
const RecordSeparator = '|'

// ErrBadRecord reports a stored record that does not follow the
// "<version>|<payload>" format.
var ErrBadRecord = errors.New("persist: malformed record")

// EncodeRecord prefixes a serialized payload with its schema version.
func EncodeRecord(version int, payload string) string {
	return strconv.Itoa(version) + string(RecordSeparator) + payload
}

// DecodeRecord splits a stored record into its schema version and serialized
// payload. The payload may itself contain the separator; only the first
// occurrence delimits the version prefix.
func DecodeRecord(record string) (int, string, error) {
	split := strings.IndexByte(record, RecordSeparator)
	if split < 0 {
		return 0, "", fmt.Errorf("%w: missing separator", ErrBadRecord)
	}
	version, err := strconv.Atoi(record[:split])
	if err != nil {
		return 0, "", fmt.Errorf("%w: version prefix %q", ErrBadRecord, record[:split])
	}
	return version, record[split+1:], nil
}

// Serializer converts between application values and the stored payload
// string. Implementations supporting non-JSON-serializable types can be
// plugged into the persistor.
type Serializer interface {
	Marshal(value any) (string, error)
	Unmarshal(payload string) (any, error)
}

// JSONSerializer is the default Serializer backed by encoding/json.
type JSONSerializer struct {
	// UseNumber decodes numbers as json.Number instead of float64.
	UseNumber bool
}

func (s JSONSerializer) Marshal(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s JSONSerializer) Unmarshal(payload string) (any, error) {
	decoder := json.NewDecoder(strings.NewReader(payload))
	if s.UseNumber {
		decoder.UseNumber()
	}
	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
