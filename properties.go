package tilemap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind is the variant held by a property Value.
type Kind uint8

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a single custom property. Exactly one variant is set, selected by Kind.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	m    Properties
	list []Value
}

// Properties is an open, string keyed attribute set attached to maps, tiles and objects.
type Properties map[string]Value

func StringValue(s string) Value { return Value{kind: KindString, str: s} }

func NumberValue(f float64) Value { return Value{kind: KindNumber, num: f} }

func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

func MapValue(p Properties) Value { return Value{kind: KindMap, m: p} }

func ListValue(values ...Value) Value { return Value{kind: KindList, list: values} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsMap() (Properties, bool) { return v.m, v.kind == KindMap }

func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindMap:
		return v.m.String()
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return ""
}

// Equal reports whether two values hold the same variant and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
	case KindMap:
		return v.m.Equal(o.m)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Get returns the value stored under key.
func (p Properties) Get(key string) (Value, bool) {
	v, ok := p[key]
	return v, ok
}

// Equal reports whether both sets hold the same keys and values.
func (p Properties) Equal(o Properties) bool {
	if len(p) != len(o) {
		return false
	}
	for k, v := range p {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// String prints the set with sorted keys.
func (p Properties) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(k)
		sb.WriteByte(':')
		sb.WriteString(p[k].String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// clone returns a copy so callers cannot mutate the registry's sets.
func (p Properties) clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func valueFromJSON(raw any) (Value, bool) {
	switch x := raw.(type) {
	case string:
		return StringValue(x), true
	case float64:
		return NumberValue(x), true
	case bool:
		return BoolValue(x), true
	case map[string]any:
		m := make(Properties, len(x))
		for k, item := range x {
			if v, ok := valueFromJSON(item); ok {
				m[k] = v
			}
		}
		return MapValue(m), true
	case []any:
		list := make([]Value, 0, len(x))
		for _, item := range x {
			if v, ok := valueFromJSON(item); ok {
				list = append(list, v)
			}
		}
		return ListValue(list...), true
	}
	// null
	return Value{}, false
}

// typedProperty is one entry of the array property encoding.
type typedProperty struct {
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// parseProperties accepts either {"key": value, ...} or
// [{"name": "key", "type": "int", "value": 1}, ...]. Null and absent yield an empty set.
func parseProperties(raw json.RawMessage) (Properties, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Properties{}, nil
	}

	switch raw[0] {
	case '{':
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		props := make(Properties, len(m))
		for k, item := range m {
			if v, ok := valueFromJSON(item); ok {
				props[k] = v
			}
		}
		return props, nil
	case '[':
		var entries []typedProperty
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, err
		}
		props := make(Properties, len(entries))
		for _, e := range entries {
			if e.Name == "" {
				return nil, fmt.Errorf("property without a name")
			}
			var item any
			if len(e.Value) > 0 {
				if err := json.Unmarshal(e.Value, &item); err != nil {
					return nil, fmt.Errorf("property %q: %w", e.Name, err)
				}
			}
			v, ok := valueFromJSON(item)
			if !ok {
				continue
			}
			if err := checkPropertyType(e.Type, v); err != nil {
				return nil, fmt.Errorf("property %q: %w", e.Name, err)
			}
			props[e.Name] = v
		}
		return props, nil
	}
	return nil, fmt.Errorf("properties must be an object or an array")
}

func checkPropertyType(typ string, v Value) error {
	var want Kind
	switch typ {
	case "", "class":
		return nil
	case "string", "color", "file":
		want = KindString
	case "int", "float", "object":
		want = KindNumber
	case "bool":
		want = KindBool
	default:
		return nil
	}
	if v.kind != want {
		return fmt.Errorf("declared %s but holds %s", typ, v.kind)
	}
	return nil
}
