package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a JSON object that remembers the order its keys were written in.
type Object = orderedmap.OrderedMap[string, any]

func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// DecodeOrdered parses JSON into a tree of *Object, []any, string,
// json.Number, bool and nil values.
func DecodeOrdered(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	value, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("failed to decode JSON: unexpected trailing data")
	}
	return value, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	switch delim {
	case '{':
		obj := NewObject()
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected object key %v", keyTok)
			}
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.Set(key, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := make([]any, 0)
		for dec.More() {
			value, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, value)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// EncodeOrdered renders a value as compact JSON, keeping *Object key order.
// Plain maps are written with sorted keys.
func EncodeOrdered(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v any) error {
	switch value := v.(type) {
	case nil:
		buf.WriteString("null")
	case *Object:
		if value == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		first := true
		for pair := value.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := encodeLeaf(buf, pair.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeValue(buf, pair.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case map[string]any:
		keys := make([]string, 0, len(value))
		for key := range value {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		buf.WriteByte('{')
		for i, key := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeLeaf(buf, key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeValue(buf, value[key]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, item := range value {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case json.Number:
		if !json.Valid([]byte(value)) {
			return fmt.Errorf("invalid number literal %q", string(value))
		}
		buf.WriteString(string(value))
	case json.RawMessage:
		if len(value) == 0 {
			buf.WriteString("null")
			return nil
		}
		if err := json.Compact(buf, value); err != nil {
			return fmt.Errorf("invalid raw JSON: %w", err)
		}
	default:
		return encodeLeaf(buf, v)
	}
	return nil
}

func encodeLeaf(buf *bytes.Buffer, v any) error {
	var leaf bytes.Buffer
	enc := json.NewEncoder(&leaf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	buf.Write(bytes.TrimRight(leaf.Bytes(), "\n"))
	return nil
}

// ToTree converts any JSON-encodable value into a fresh ordered tree.
func ToTree(v any) (any, error) {
	data, err := EncodeOrdered(v)
	if err != nil {
		return nil, err
	}
	return DecodeOrdered(data)
}

// Plain converts an ordered tree into map[string]any / []any / float64 values.
func Plain(v any) any {
	switch value := v.(type) {
	case *Object:
		if value == nil {
			return nil
		}
		out := make(map[string]any, value.Len())
		for pair := value.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = Plain(pair.Value)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = Plain(item)
		}
		return out
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return float64(n)
		}
		f, err := value.Float64()
		if err != nil {
			return string(value)
		}
		return f
	default:
		return v
	}
}

// Decode converts a tree into a typed value through its JSON form.
func Decode[T any](tree any) (T, error) {
	var out T
	data, err := EncodeOrdered(tree)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to decode value: %w", err)
	}
	return out, nil
}
