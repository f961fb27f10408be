package csvjson

import "github.com/oetzilabs/wfa/engine/schema"

func delimiterSchema(def string) map[string]any {
	return map[string]any{
		"type":        "string",
		"enum":        []any{",", ";"},
		"default":     def,
		"description": "Field delimiter.",
	}
}

func rowsSchema() map[string]any {
	return map[string]any{
		"type":        "array",
		"items":       map[string]any{"type": "object"},
		"description": "Records; nested objects become dot-path columns.",
	}
}

func jsonToCSVInputSchema(def string) *schema.Schema {
	return &schema.Schema{
		"type":     "object",
		"required": []string{"data"},
		"properties": map[string]any{
			"data":      rowsSchema(),
			"delimiter": delimiterSchema(def),
		},
	}
}

func jsonToCSVOutputSchema() *schema.Schema {
	return &schema.Schema{
		"type":     "object",
		"required": []string{"csv", "delimiter"},
		"properties": map[string]any{
			"csv":       map[string]any{"type": "string"},
			"delimiter": map[string]any{"type": "string", "enum": []any{",", ";"}},
		},
	}
}

func csvToJSONInputSchema(def string) *schema.Schema {
	return &schema.Schema{
		"type":     "object",
		"required": []string{"csv"},
		"properties": map[string]any{
			"csv":       map[string]any{"type": "string", "description": "CSV text with a header row."},
			"delimiter": delimiterSchema(def),
		},
	}
}

func csvToJSONOutputSchema() *schema.Schema {
	return &schema.Schema{
		"type":     "object",
		"required": []string{"data"},
		"properties": map[string]any{
			"data": rowsSchema(),
		},
	}
}
