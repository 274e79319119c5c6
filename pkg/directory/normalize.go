package directory

import (
	"bytes"
	"encoding/json"

	"github.com/cardsync/cardsync/pkg/errors"
)

// NormalizeList converts a JSON value that may be either a single
// object or an array of objects into a flat slice. The directory
// backend is known to serve multi-valued fields in both shapes
// depending on cardinality; callers normalize at the boundary so
// nothing downstream ever sees the ambiguity.
//
// null, an empty document, and an empty array all normalize to nil.
func NormalizeList(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, errors.WrapParse("json", "", err)
		}
		if len(items) == 0 {
			return nil, nil
		}
		return items, nil
	case '{':
		return []json.RawMessage{trimmed}, nil
	}
	return nil, errors.NewParseError("json", "", 0, "expected object or array")
}

// DecodeList normalizes raw and unmarshals each element into a value
// of type T.
func DecodeList[T any](raw json.RawMessage) ([]T, error) {
	items, err := NormalizeList(raw)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			return nil, errors.WrapParse("json", "", err)
		}
		out = append(out, v)
	}
	return out, nil
}
