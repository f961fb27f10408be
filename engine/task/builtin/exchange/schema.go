package exchange

import (
	"github.com/oetzilabs/wfa/engine/schema"
	"github.com/oetzilabs/wfa/engine/task/builtin"
)

const datePattern = `^(latest|\d{4}-\d{2}-\d{2})$`

func inputSchema(currencies []string) *schema.Schema {
	codes := make([]any, len(currencies))
	for i, code := range currencies {
		codes[i] = code
	}
	currency := map[string]any{"type": "string", "enum": codes}
	return &schema.Schema{
		"type":     "object",
		"required": []string{"from", "to", "value"},
		"properties": map[string]any{
			"from": currency,
			"to": map[string]any{
				"type":        "array",
				"items":       currency,
				"minItems":    1,
				"uniqueItems": true,
			},
			"value": map[string]any{"type": "number"},
			"date": map[string]any{
				"type":        "string",
				"pattern":     datePattern,
				"default":     "latest",
				"description": "Rate date as YYYY-MM-DD, or latest.",
			},
		},
	}
}

var outputSchema = &schema.Schema{
	"type":                 "object",
	"minProperties":        1,
	"additionalProperties": map[string]any{"type": "number"},
}

// errorCodes lists every code convert and the rate client can return.
var errorCodes = []any{
	builtin.CodeCurrencyNotFound,
	builtin.CodeUnavailable,
	builtin.CodeInvalidArgument,
	builtin.CodeInternal,
}

var errorSchema = &schema.Schema{
	"type":     "object",
	"required": []string{"message"},
	"properties": map[string]any{
		"message": map[string]any{"type": "string"},
		"code":    map[string]any{"type": "string", "enum": errorCodes},
		"details": map[string]any{"type": "object"},
	},
}
