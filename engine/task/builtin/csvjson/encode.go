package csvjson

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oetzilabs/wfa/engine/schema"
)

const (
	nullToken      = "null"
	undefinedToken = "undefined"
)

// flatten writes the leaves of obj into out under dot-path keys. Non-empty
// nested objects are descended into; everything else is a leaf.
func flatten(prefix string, obj *schema.Object, out *schema.Object) {
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		key := pair.Key
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := pair.Value.(*schema.Object); ok && nested.Len() > 0 {
			flatten(key, nested, out)
			continue
		}
		out.Set(key, pair.Value)
	}
}

func formatCell(v any) (string, error) {
	switch value := v.(type) {
	case nil:
		return nullToken, nil
	case string:
		return value, nil
	case json.Number:
		return string(value), nil
	case bool:
		if value {
			return "true", nil
		}
		return "false", nil
	default:
		data, err := schema.EncodeOrdered(value)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// encodeRows renders rows as CSV with a header built from the first-seen
// order of every flattened key. Keys absent from a row are written as
// "undefined".
func encodeRows(rows []json.RawMessage, delimiter rune) (string, error) {
	flat := make([]*schema.Object, 0, len(rows))
	var headers []string
	seen := make(map[string]struct{})
	for i, raw := range rows {
		tree, err := schema.DecodeOrdered(raw)
		if err != nil {
			return "", fmt.Errorf("row %d: %w", i, err)
		}
		obj, ok := tree.(*schema.Object)
		if !ok {
			return "", fmt.Errorf("row %d: expected an object, got %T", i, tree)
		}
		row := schema.NewObject()
		flatten("", obj, row)
		for pair := row.Oldest(); pair != nil; pair = pair.Next() {
			if _, dup := seen[pair.Key]; !dup {
				seen[pair.Key] = struct{}{}
				headers = append(headers, pair.Key)
			}
		}
		flat = append(flat, row)
	}
	if len(rows) == 0 {
		return "", nil
	}
	if len(headers) == 0 {
		// Keyless rows keep a single unnamed column so each row survives as {}.
		headers = []string{""}
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = delimiter
	if err := writeRecord(w, &buf, headers); err != nil {
		return "", err
	}
	record := make([]string, len(headers))
	for _, row := range flat {
		for i, header := range headers {
			value, present := row.Get(header)
			if !present {
				record[i] = undefinedToken
				continue
			}
			cell, err := formatCell(value)
			if err != nil {
				return "", fmt.Errorf("column %s: %w", header, err)
			}
			record[i] = cell
		}
		if err := writeRecord(w, &buf, record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// writeRecord writes record through w. A lone empty field would render as a
// blank line, which readers skip, so it is written as a quoted empty field.
func writeRecord(w *csv.Writer, buf *bytes.Buffer, record []string) error {
	if len(record) != 1 || record[0] != "" {
		return w.Write(record)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	buf.WriteString("\"\"\n")
	return nil
}
