package schema

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"
	"github.com/mohae/deepcopy"
)

// -----------------------------------------------------------------------------
// Schema
// -----------------------------------------------------------------------------

// Schema is a JSON Schema document expressed as a plain map.
type Schema map[string]any

// Any returns the permissive schema that accepts every value.
func Any() *Schema {
	return &Schema{}
}

func (s *Schema) String() string {
	bytes, err := json.Marshal(s)
	if err != nil {
		return ""
	}
	return string(bytes)
}

func (s *Schema) Compile() (*jsonschema.Schema, error) {
	if s == nil {
		return nil, nil
	}
	bytes, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
}

// Clone returns a deep copy so callers can never mutate a shared schema.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	copied, ok := deepcopy.Copy(map[string]any(*s)).(map[string]any)
	if !ok || copied == nil {
		copied = map[string]any{}
	}
	out := Schema(copied)
	return &out
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case Schema:
		return m
	case *Schema:
		if m == nil {
			return nil
		}
		return *m
	default:
		return nil
	}
}

func asSlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []string:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out
	case []map[string]any:
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = item
		}
		return out
	default:
		return nil
	}
}
