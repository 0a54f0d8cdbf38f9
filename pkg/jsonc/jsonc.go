// Package jsonc reads and writes the JSON configuration layers. Input may
// carry // and /* */ comments outside of string literals.
package jsonc

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/tailscale/hujson"
)

// ErrParse is returned when non-empty content is not valid JSON after
// comment stripping.
var ErrParse = errors.New("failed to parse config")

// Parse parses a layer. Content that is empty once comments are removed
// yields an empty object. Trailing commas are rejected. Numbers are kept as
// json.Number so that values are written back exactly as read.
func Parse(data []byte) (any, error) {
	if strings.TrimSpace(string(data)) == "" {
		return map[string]any{}, nil
	}

	// hujson rejects input with no value, so the content is parsed as the
	// sole element of an array.
	wrapped := make([]byte, 0, len(data)+4)
	wrapped = append(wrapped, "[\n"...)
	wrapped = append(wrapped, data...)
	wrapped = append(wrapped, "\n]"...)

	root, err := hujson.Parse(wrapped)
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "%v", err)
	}
	arr, ok := root.Value.(*hujson.Array)
	if !ok {
		return nil, errors.Wrap(ErrParse, "unexpected top-level value")
	}
	switch {
	case len(arr.Elements) == 0:
		return map[string]any{}, nil
	case len(arr.Elements) > 1 || hasTrailingComma(arr.Elements[0]):
		return nil, errors.Wrap(ErrParse, "unexpected content after top-level value")
	}

	value := arr.Elements[0]
	if containsTrailingComma(value) {
		return nil, errors.Wrap(ErrParse, "trailing comma")
	}
	value.Standardize()

	var out any
	dec := json.NewDecoder(bytes.NewReader(value.Pack()))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, errors.Wrapf(ErrParse, "%v", err)
	}
	return out, nil
}

// hasTrailingComma reports whether a comma follows v inside its parent
func hasTrailingComma(v hujson.Value) bool {
	return v.AfterExtra != nil
}

func containsTrailingComma(v hujson.Value) bool {
	switch composite := v.Value.(type) {
	case *hujson.Object:
		for i, member := range composite.Members {
			if i == len(composite.Members)-1 && hasTrailingComma(member.Value) {
				return true
			}
			if containsTrailingComma(member.Value) {
				return true
			}
		}
	case *hujson.Array:
		for i, element := range composite.Elements {
			if i == len(composite.Elements)-1 && hasTrailingComma(element) {
				return true
			}
			if containsTrailingComma(element) {
				return true
			}
		}
	}
	return false
}

// ParseObject is Parse restricted to a top-level object. Any other top-level
// value is replaced by an empty object.
func ParseObject(data []byte) (map[string]any, error) {
	value, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if obj, ok := value.(map[string]any); ok {
		return obj, nil
	}
	return map[string]any{}, nil
}

// Marshal renders a tree as pretty-printed JSON with two-space indentation
func Marshal(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return nil, errors.Wrap(err, "failed to marshal config")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
