package schema

import (
	"encoding/json"
	"fmt"

	invopop "github.com/invopop/jsonschema"
)

// FromType derives an inline schema from the Go type T. Struct fields without
// omitempty are required; `jsonschema` tags add constraints.
func FromType[T any]() (*Schema, error) {
	reflector := &invopop.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
		Anonymous:      true,
	}
	reflected := reflector.Reflect(new(T))
	data, err := json.Marshal(reflected)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reflected schema: %w", err)
	}
	var out Schema
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reflected schema: %w", err)
	}
	delete(out, "$schema")
	delete(out, "$id")
	return &out, nil
}
