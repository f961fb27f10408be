package schema

import (
	"fmt"
	"slices"
)

const (
	DescribeAny       = "any"
	DescribeUnknown   = "unknown"
	markerOptional    = "optional"
	markerNullable    = "nullable"
	literalPrefix     = "literal:"
	nullTypeName      = "null"
	objectTypeName    = "object"
	arrayTypeName     = "array"
	combinatorAnyOf   = "anyOf"
	combinatorOneOf   = "oneOf"
	requiredKeyword   = "required"
	propertiesKeyword = "properties"
)

var primitiveTypes = []string{"string", "number", "integer", "boolean", nullTypeName}

// Describe renders a schema as a JSON-serializable shape for blueprints.
// It never panics; unsupported constructs render as "unknown".
func Describe(s *Schema) any {
	if s == nil {
		return DescribeAny
	}
	return describeNode(*s)
}

func describeNode(node map[string]any) (out any) {
	defer func() {
		if recover() != nil {
			out = DescribeUnknown
		}
	}()
	if node == nil {
		return DescribeUnknown
	}
	if len(node) == 0 {
		return DescribeAny
	}
	if value, ok := node["const"]; ok {
		return literal(value)
	}
	if values, ok := node["enum"]; ok {
		items := asSlice(values)
		if len(items) == 1 {
			return literal(items[0])
		}
		lits := make([]any, 0, len(items))
		for _, item := range items {
			lits = append(lits, literal(item))
		}
		return lits
	}
	for _, key := range []string{combinatorAnyOf, combinatorOneOf} {
		if options := asSlice(node[key]); options != nil {
			return describeOptions(options)
		}
	}
	types := typeNames(node["type"])
	nullable := len(types) > 1 && slices.Contains(types, nullTypeName)
	if nullable {
		types = slices.DeleteFunc(types, func(t string) bool { return t == nullTypeName })
	}
	var desc any
	switch len(types) {
	case 0:
		switch {
		case node[propertiesKeyword] != nil:
			desc = describeObject(node)
		case node["items"] != nil:
			desc = describeNode(asMap(node["items"]))
		default:
			desc = DescribeUnknown
		}
	case 1:
		desc = describeType(types[0], node)
	default:
		list := make([]any, 0, len(types))
		for _, t := range types {
			list = append(list, describeType(t, node))
		}
		desc = list
	}
	if nullable {
		return map[string]any{markerNullable: desc}
	}
	return desc
}

func describeOptions(options []any) any {
	list := make([]any, 0, len(options))
	for _, option := range options {
		list = append(list, describeNode(asMap(option)))
	}
	// [T, null] is the JSON Schema spelling of a nullable T.
	if len(list) == 2 {
		for i, item := range list {
			if item == nullTypeName {
				return map[string]any{markerNullable: list[1-i]}
			}
		}
	}
	return list
}

func describeType(typeName string, node map[string]any) any {
	switch typeName {
	case objectTypeName:
		return describeObject(node)
	case arrayTypeName:
		items := asMap(node["items"])
		if items == nil {
			return DescribeAny
		}
		return describeNode(items)
	default:
		if slices.Contains(primitiveTypes, typeName) {
			return typeName
		}
		return DescribeUnknown
	}
}

func describeObject(node map[string]any) any {
	props := asMap(node[propertiesKeyword])
	if len(props) == 0 {
		return objectTypeName
	}
	required := map[string]bool{}
	for _, name := range asSlice(node[requiredKeyword]) {
		if s, ok := name.(string); ok {
			required[s] = true
		}
	}
	out := make(map[string]any, len(props))
	for name, prop := range props {
		desc := describeNode(asMap(prop))
		if !required[name] {
			desc = map[string]any{markerOptional: desc}
		}
		out[name] = desc
	}
	return out
}

func typeNames(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []string:
		return slices.Clone(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func literal(v any) string {
	return fmt.Sprintf("%s%v", literalPrefix, v)
}
