package openpayu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// FieldsFromJSON decodes a JSON object into Fields, keeping key order.
// Objects become Fields, arrays of objects become []Fields and numbers keep
// their literal text.
func FieldsFromJSON(data []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read fields: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("fields must be a JSON object")
	}

	fields, err := decodeObject(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after fields object")
	}
	return fields, nil
}

// decodeObject reads key/value pairs up to the closing brace
func decodeObject(dec *json.Decoder) (Fields, error) {
	var fields Fields
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}

		value, err := decodeValue(dec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		fields = append(fields, Field{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec)
		case '[':
			var items []Fields
			for dec.More() {
				item, err := dec.Token()
				if err != nil {
					return nil, err
				}
				if delim, ok := item.(json.Delim); !ok || delim != '{' {
					return nil, fmt.Errorf("arrays may only hold objects")
				}
				fields, err := decodeObject(dec)
				if err != nil {
					return nil, err
				}
				items = append(items, fields)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return items, nil
		}
		return nil, fmt.Errorf("unexpected %v", v)
	case json.Number, string, bool, nil:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported value %v", v)
	}
}
