// Package codec converts record lists to and from the wrapper object stored
// under a preference key: {"<field>": [ ... ]}.
package codec

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/Tiliavir/daybook/internal/logging"
)

// Decode extracts the list under field from raw. Empty input, "{}", malformed
// JSON or a mistyped field all yield an empty list; the cause is logged.
func Decode[T any](raw, field string, logger logging.Logger) []T {
	list, err := DecodeStrict[T](raw, field)
	if err != nil {
		logger.Warnf(logging.TypeStore, "Discarding unreadable %s: %s", field, err)
		return []T{}
	}
	return list
}

// ErrMissingField is returned by DecodeField when the wrapper has no list
// under the requested field.
var ErrMissingField = errors.New("field missing")

// DecodeStrict is Decode with the error reported. An empty string is not an
// error.
func DecodeStrict[T any](raw, field string) ([]T, error) {
	if raw == "" {
		return []T{}, nil
	}
	list, err := DecodeField[T](raw, field)
	if errors.Is(err, ErrMissingField) {
		return []T{}, nil
	}
	return list, err
}

// DecodeField requires raw to carry a list under field. Only an explicit []
// decodes to an empty list; an absent or null field is ErrMissingField.
func DecodeField[T any](raw, field string) ([]T, error) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
		return []T{}, fmt.Errorf("decoding wrapper: %w", err)
	}
	data, ok := wrapper[field]
	if !ok || string(data) == "null" {
		return []T{}, fmt.Errorf("decoding %s: %w", field, ErrMissingField)
	}
	var list []T
	if err := json.Unmarshal(data, &list); err != nil {
		return []T{}, fmt.Errorf("decoding %s: %w", field, err)
	}
	if list == nil {
		list = []T{}
	}
	return list, nil
}

// Encode wraps list under field. A nil list encodes as [].
func Encode[T any](list []T, field string) string {
	if list == nil {
		list = []T{}
	}
	data, err := json.Marshal(map[string][]T{field: list})
	if err != nil {
		// Record types are plain structs of strings, bools and ints.
		panic(fmt.Sprintf("codec: encoding %s: %v", field, err))
	}
	return string(data)
}
