package argv

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which member of the Value union is set.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
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
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a parsed flag value: a string, a number, a boolean, or a list of
// scalars. A list only appears when the same flag was given more than once.
// The zero Value is the empty string.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []Value
}

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric Value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns a list Value holding the given scalars in order.
func List(items ...Value) Value {
	l := make([]Value, len(items))
	copy(l, items)
	return Value{kind: KindList, list: l}
}

// Kind reports which member of the union v holds.
func (v Value) Kind() Kind { return v.kind }

// IsList reports whether v holds a list.
func (v Value) IsList() bool { return v.kind == KindList }

// Str returns the string member and whether v is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindString }

// Float returns the numeric member and whether v is a number.
func (v Value) Float() (float64, bool) { return v.num, v.kind == KindNumber }

// Int returns the numeric member as an int. It reports false unless v is a
// number with a whole value inside the int range.
func (v Value) Int() (int, bool) {
	if v.kind != KindNumber || v.num != math.Trunc(v.num) {
		return 0, false
	}
	if v.num < float64(math.MinInt) || v.num >= float64(math.MaxInt) {
		return 0, false
	}
	return int(v.num), true
}

// Bool returns the boolean member and whether v is a boolean.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// List returns a copy of the list items, or nil when v is a scalar.
func (v Value) List() []Value {
	if v.kind != KindList {
		return nil
	}
	out := make([]Value, len(v.list))
	copy(out, v.list)
	return out
}

// Last returns the most recent occurrence: the last list item for lists,
// v itself for scalars.
func (v Value) Last() Value {
	if v.kind == KindList && len(v.list) > 0 {
		return v.list[len(v.list)-1]
	}
	return v
}

// Truthy follows the usual script rules: false, 0, "" and empty lists are
// falsy, everything else is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.num != 0
	case KindList:
		return len(v.list) > 0
	default:
		return v.str != ""
	}
}

// Equal reports whether v and o hold the same kind and contents.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindBool:
		return v.b == o.b
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
	default:
		return v.str == o.str
	}
}

// String renders v for display. Lists are comma-joined.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return strings.Join(parts, ",")
	default:
		return v.str
	}
}

// MarshalJSON encodes v as the matching JSON scalar or array.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON decodes a JSON scalar or array of scalars into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	val, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// ValueOf converts a decoded Go value (as produced by TOML or JSON decoders)
// into a Value. Nested lists are rejected.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case float32:
		return Number(float64(t)), nil
	case float64:
		return Number(t), nil
	case []any:
		items := make([]Value, 0, len(t))
		for i, e := range t {
			item, err := ValueOf(e)
			if err != nil {
				return Value{}, fmt.Errorf("item %d: %w", i, err)
			}
			if item.IsList() {
				return Value{}, fmt.Errorf("item %d: nested lists are not supported", i)
			}
			items = append(items, item)
		}
		return List(items...), nil
	default:
		return Value{}, fmt.Errorf("unsupported flag value type %T", x)
	}
}

// Coerce applies the parser's typing rules to a raw flag value: numeric
// strings become numbers, "true"/"false" (any case) become booleans, and
// everything else stays a string.
func Coerce(raw string) Value {
	if isNumeric(raw) {
		n, _ := strconv.ParseFloat(raw, 64)
		return Number(n)
	}
	switch strings.ToLower(raw) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return String(raw)
}

// isNumeric accepts decimal and exponent forms but rejects NaN and the
// infinities, which ParseFloat would otherwise let through as words.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return false
	}
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}
