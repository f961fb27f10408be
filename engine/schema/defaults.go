package schema

import (
	"slices"
)

// applyDefaults fills absent object properties with their schema defaults.
// The tree is modified in place and returned.
func applyDefaults(node map[string]any, value any) any {
	if node == nil {
		return value
	}
	switch v := value.(type) {
	case *Object:
		if v == nil {
			return value
		}
		props := asMap(node["properties"])
		for pair := v.Oldest(); pair != nil; pair = pair.Next() {
			if propSchema := asMap(props[pair.Key]); propSchema != nil {
				pair.Value = applyDefaults(propSchema, pair.Value)
			}
		}
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			if _, present := v.Get(name); present {
				continue
			}
			propSchema := asMap(props[name])
			def, ok := propSchema["default"]
			if !ok {
				continue
			}
			tree, err := ToTree(def)
			if err != nil {
				continue
			}
			v.Set(name, tree)
		}
		return v
	case []any:
		items := asMap(node["items"])
		if items == nil {
			return v
		}
		for i := range v {
			v[i] = applyDefaults(items, v[i])
		}
		return v
	default:
		return value
	}
}
