package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CompositeKey derives the storage key: prefix + key + JSON(params).
// A nil params encodes as the empty JSON string, "". Maps encode with sorted
// keys, so equal maps always share a key; use OrderedParams when insertion
// order must be part of the key.
func CompositeKey(prefix, key string, params any) (string, error) {
	if params == nil {
		params = ""
	}
	encoded, err := encodeJSON(params)
	if err != nil {
		return "", fmt.Errorf("encode params for %s: %w", key, err)
	}
	if string(encoded) == "null" {
		encoded = []byte(`""`)
	}
	return prefix + key + string(encoded), nil
}

// Param is one entry of OrderedParams.
type Param struct {
	Key   string
	Value any
}

// OrderedParams encodes as a JSON object whose members keep slice order.
type OrderedParams []Param

func (p OrderedParams) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, param := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := encodeJSON(param.Key)
		if err != nil {
			return nil, err
		}
		v, err := encodeJSON(param.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeJSON is json.Marshal without HTML escaping, so "<" and "&" stay literal.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
