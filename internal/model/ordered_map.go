package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// OrderedMap is a string-keyed map that remembers insertion order.
// It is the building block of every JSON object aimap emits, because the
// position of a key carries meaning for the reader (section order, column
// order, manifest order) and Go maps do not keep it.
//
// Design decision: We keep our own small type instead of a generic ordered
// map library because such libraries marshal values with json.Marshal, which
// HTML-escapes '<', '>' and '&'. Route summaries ("GET / -> Controller")
// would then be written as "->", which defeats the purpose of a file
// meant to be read by people and assistants.
type OrderedMap struct {
	keys   []string
	values map[string]any
}

// NewOrderedMap creates an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{
		keys:   make([]string, 0),
		values: make(map[string]any),
	}
}

// Set stores value under key. A new key is appended at the end; an existing
// key keeps its position and only the value is replaced.
func (m *OrderedMap) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key string) (any, bool) {
	if m == nil || m.values == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *OrderedMap) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key, preserving the order of the remaining keys.
func (m *OrderedMap) Delete(key string) {
	if !m.Has(key) {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns a copy of the keys in insertion order.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Len returns the number of keys.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Each calls fn for every entry in insertion order until fn returns false.
func (m *OrderedMap) Each(fn func(key string, value any) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// MarshalJSON encodes the map as a JSON object in insertion order.
// HTML characters are left unescaped, but json.Marshal escapes them again
// in what a Marshaler returns; only an Encoder with SetEscapeHTML(false)
// keeps them as written.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeUnescaped(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeUnescaped(&buf, m.values[k]); err != nil {
			return nil, fmt.Errorf("failed to encode key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping its key order. Nested objects
// become *OrderedMap, arrays become []any and numbers become json.Number so
// that integers survive a round trip unchanged.
func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("ordered map: expected JSON object")
	}

	m.keys = make([]string, 0)
	m.values = make(map[string]any)
	return decodeObjectInto(dec, m)
}

// encodeUnescaped writes v as JSON without HTML escaping and without the
// trailing newline json.Encoder appends.
func encodeUnescaped(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// decodeObjectInto reads object members until the closing brace.
// The opening brace must already have been consumed.
func decodeObjectInto(dec *json.Decoder, m *OrderedMap) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("ordered map: expected string key, got %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return err
		}
		m.Set(key, value)
	}
	_, err := dec.Token() // closing '}'
	return err
}

// decodeValue reads the next complete JSON value from dec.
func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}

	switch delim {
	case '{':
		child := NewOrderedMap()
		if err := decodeObjectInto(dec, child); err != nil {
			return nil, err
		}
		return child, nil
	case '[':
		list := make([]any, 0)
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		if _, err := dec.Token(); err != nil { // closing ']'
			return nil, err
		}
		return list, nil
	default:
		return nil, fmt.Errorf("ordered map: unexpected delimiter %v", delim)
	}
}
