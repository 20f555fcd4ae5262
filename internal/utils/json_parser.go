package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FirstObjectEntry returns the first key and value of a JSON object in
// document order. ok is false for an empty object.
func FirstObjectEntry(raw json.RawMessage) (key string, value json.RawMessage, ok bool, err error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return "", nil, false, fmt.Errorf("failed to read object: %w", err)
	}
	if delim, isDelim := tok.(json.Delim); !isDelim || delim != '{' {
		return "", nil, false, fmt.Errorf("expected object, got %v", tok)
	}
	if !dec.More() {
		return "", nil, false, nil
	}
	tok, err = dec.Token()
	if err != nil {
		return "", nil, false, fmt.Errorf("failed to read key: %w", err)
	}
	key, _ = tok.(string)
	if err := dec.Decode(&value); err != nil {
		return "", nil, false, fmt.Errorf("failed to read value of %q: %w", key, err)
	}
	return key, value, true, nil
}
