package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Attributes is an ordered attribute bag with string keys. Values are the
// shapes encoding/json produces: bool, float64, string, nil, []any and
// map[string]any. The zero value is an empty bag ready to use.
type Attributes struct {
	keys   []string
	values map[string]any
}

func NewAttributes() Attributes {
	return Attributes{values: make(map[string]any)}
}

// AttributesOf builds a bag from alternating key/value pairs.
func AttributesOf(kv ...any) Attributes {
	a := NewAttributes()
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("attributes: key at %d is %T, not string", i, kv[i]))
		}
		a.Set(key, kv[i+1])
	}
	return a
}

// AttributesFromMap copies m; keys are ordered lexically since maps carry no order.
func AttributesFromMap(m map[string]any) Attributes {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	a := NewAttributes()
	for _, k := range keys {
		a.Set(k, cloneValue(m[k]))
	}
	return a
}

func (a Attributes) Len() int { return len(a.keys) }

func (a Attributes) Keys() []string {
	return append([]string(nil), a.keys...)
}

func (a Attributes) Has(key string) bool {
	_, ok := a.values[key]
	return ok
}

func (a Attributes) Get(key string) (any, bool) {
	v, ok := a.values[key]
	return v, ok
}

func (a Attributes) Str(key string) (string, bool) {
	v, ok := a.values[key].(string)
	return v, ok
}

func (a Attributes) Bool(key string) (bool, bool) {
	v, ok := a.values[key].(bool)
	return v, ok
}

func (a Attributes) Object(key string) (map[string]any, bool) {
	v, ok := a.values[key].(map[string]any)
	return v, ok
}

// Set stores v under key. A new key is appended; an existing key keeps its position.
func (a *Attributes) Set(key string, v any) {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = v
}

func (a *Attributes) Delete(key string) {
	if _, ok := a.values[key]; !ok {
		return
	}
	delete(a.values, key)
	for i, k := range a.keys {
		if k == key {
			a.keys = append(a.keys[:i:i], a.keys[i+1:]...)
			break
		}
	}
}

// Clone deep-copies the bag, including nested objects and arrays.
func (a Attributes) Clone() Attributes {
	out := Attributes{
		keys:   append([]string(nil), a.keys...),
		values: make(map[string]any, len(a.values)),
	}
	for k, v := range a.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

// Merge returns a copy of a with every key of patch overwriting the value at
// that key. Keys absent from patch are preserved. The merge is shallow: a
// nested object in patch replaces the existing one as a unit.
func (a Attributes) Merge(patch Attributes) Attributes {
	out := a.Clone()
	for _, k := range patch.keys {
		out.Set(k, cloneValue(patch.values[k]))
	}
	return out
}

// Equal compares the key sets and values, ignoring key order.
func (a Attributes) Equal(b Attributes) bool {
	if len(a.values) != len(b.values) {
		return false
	}
	for k, v := range a.values {
		w, ok := b.values[k]
		if !ok || !reflect.DeepEqual(v, w) {
			return false
		}
	}
	return true
}

// Map returns a deep copy as a plain map.
func (a Attributes) Map() map[string]any {
	m := make(map[string]any, len(a.values))
	for k, v := range a.values {
		m[k] = cloneValue(v)
	}
	return m
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(a.values[k])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the top-level key order.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("attributes: expected JSON object, got %v", tok)
	}
	out := NewAttributes()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("attributes: unexpected key token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("attribute %q: %w", key, err)
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*a = out
	return nil
}

// Decode converts the bag into a typed value through its JSON form.
func (a Attributes) Decode(v any) error {
	data, err := a.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	case Attributes:
		return t.Clone()
	default:
		return v
	}
}
