package csvjson

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/oetzilabs/wfa/engine/schema"
)

// parseCell reverses formatCell. The second result is false for cells that
// stand for an absent key.
func parseCell(cell string) (any, bool) {
	switch cell {
	case undefinedToken:
		return nil, false
	case nullToken:
		return nil, true
	case "true":
		return true, true
	case "false":
		return false, true
	}
	if looksNumeric(cell) && json.Valid([]byte(cell)) {
		return json.Number(cell), true
	}
	if strings.HasPrefix(cell, "[") || strings.HasPrefix(cell, "{") {
		if value, err := schema.DecodeOrdered([]byte(cell)); err == nil {
			return value, true
		}
	}
	return cell, true
}

func looksNumeric(cell string) bool {
	if cell == "" {
		return false
	}
	c := cell[0]
	return c == '-' || (c >= '0' && c <= '9')
}

func splitPath(header string) []string {
	parts := strings.Split(header, ".")
	for _, part := range parts {
		if part == "" {
			return []string{header}
		}
	}
	return parts
}

// setPath stores value under the dot path, creating intermediate objects.
func setPath(obj *schema.Object, path []string, value any) error {
	current := obj
	for i, key := range path[:len(path)-1] {
		existing, present := current.Get(key)
		if !present {
			next := schema.NewObject()
			current.Set(key, next)
			current = next
			continue
		}
		next, ok := existing.(*schema.Object)
		if !ok {
			return fmt.Errorf("column %s conflicts with a value at %s", strings.Join(path, "."), strings.Join(path[:i+1], "."))
		}
		current = next
	}
	current.Set(path[len(path)-1], value)
	return nil
}

// decodeRows parses CSV text with a header row into JSON objects.
func decodeRows(text string, delimiter rune) ([]json.RawMessage, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	header, err := r.Read()
	if err == io.EOF {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	paths := make([][]string, len(header))
	for i, h := range header {
		paths[i] = splitPath(h)
	}
	rows := []json.RawMessage{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		obj := schema.NewObject()
		for i, cell := range record {
			value, present := parseCell(cell)
			if !present {
				continue
			}
			if err := setPath(obj, paths[i], value); err != nil {
				line, _ := r.FieldPos(i)
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
		data, err := schema.EncodeOrdered(obj)
		if err != nil {
			return nil, err
		}
		rows = append(rows, data)
	}
	return rows, nil
}
