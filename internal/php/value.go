package php

import (
	"strconv"

	"github.com/nao1215/aimap/internal/model"
)

// ClassName is a fully qualified class name produced by a Foo::class
// expression, resolved against the file's namespace and imports.
type ClassName string

// Array is an evaluated PHP array literal. Entries keep source order.
// PHP arrays are both lists and maps; IsList tells which one a literal is.
type Array struct {
	Entries []Entry
}

// Entry is one element of an Array. Key is nil for auto-indexed elements,
// otherwise a string or int64.
type Entry struct {
	Key   any
	Value any
}

// IsList reports whether no entry carries an explicit key.
func (a *Array) IsList() bool {
	if a == nil {
		return true
	}
	for _, e := range a.Entries {
		if e.Key != nil {
			return false
		}
	}
	return true
}

// Len returns the number of entries.
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Entries)
}

// Get returns the value of the last entry whose key equals key, following
// PHP's rule that a later duplicate key wins.
func (a *Array) Get(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	var (
		found bool
		value any
	)
	for _, e := range a.Entries {
		if keyString(e.Key) == key && e.Key != nil {
			found = true
			value = e.Value
		}
	}
	return value, found
}

// Strings returns the entry values that are strings or class names, in order.
// Other values are skipped.
func (a *Array) Strings() []string {
	out := make([]string, 0, a.Len())
	if a == nil {
		return out
	}
	for _, e := range a.Entries {
		if s, ok := StringValue(e.Value); ok {
			out = append(out, s)
		}
	}
	return out
}

// Map converts the array into an ordered map. Auto-indexed entries receive
// sequential integer keys the way PHP assigns them.
func (a *Array) Map() *model.OrderedMap {
	m := model.NewOrderedMap()
	if a == nil {
		return m
	}
	var next int64
	for _, e := range a.Entries {
		key := e.Key
		if key == nil {
			key = next
		}
		if n, ok := key.(int64); ok && n >= next {
			next = n + 1
		}
		m.Set(keyString(key), ToJSON(e.Value))
	}
	return m
}

// ToJSON converts an evaluated value into a JSON-compatible value:
// lists become []any, keyed arrays become *model.OrderedMap and class names
// become plain strings.
func ToJSON(v any) any {
	switch t := v.(type) {
	case *Array:
		if t.IsList() {
			list := make([]any, 0, t.Len())
			for _, e := range t.Entries {
				list = append(list, ToJSON(e.Value))
			}
			return list
		}
		return t.Map()
	case ClassName:
		return string(t)
	default:
		return v
	}
}

// StringValue returns v as a string when it is a string or a class name.
func StringValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case ClassName:
		return string(t), true
	default:
		return "", false
	}
}

// keyString renders an array key the way PHP would when used as a map key.
func keyString(k any) string {
	switch t := k.(type) {
	case string:
		return t
	case ClassName:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case nil:
		return ""
	default:
		return ""
	}
}
