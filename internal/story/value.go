package story

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ValueType tags the variant held by a Value.
type ValueType uint8

const (
	TypeBool ValueType = iota + 1
	TypeNumber
	TypeString
)

func (t ValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	default:
		return "invalid"
	}
}

// Value is a story variable: a bool, a number or a string. It serializes as
// the plain JSON or YAML scalar.
type Value struct {
	typ ValueType
	b   bool
	n   float64
	s   string
}

func BoolValue(v bool) Value { return Value{typ: TypeBool, b: v} }

func NumberValue(v float64) Value { return Value{typ: TypeNumber, n: v} }

func StringValue(v string) Value { return Value{typ: TypeString, s: v} }

// ParseValue interprets CLI input: true/false become bools, numeric text
// becomes a number, anything else a string.
func ParseValue(raw string) Value {
	if b, err := strconv.ParseBool(raw); err == nil {
		return BoolValue(b)
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return NumberValue(n)
	}
	return StringValue(raw)
}

func (v Value) Type() ValueType { return v.typ }

func (v Value) Bool() (bool, bool) { return v.b, v.typ == TypeBool }

func (v Value) Number() (float64, bool) { return v.n, v.typ == TypeNumber }

func (v Value) Text() (string, bool) { return v.s, v.typ == TypeString }

// Interface returns the underlying Go value, or nil for the zero Value.
func (v Value) Interface() any {
	switch v.typ {
	case TypeBool:
		return v.b
	case TypeNumber:
		return v.n
	case TypeString:
		return v.s
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.typ {
	case TypeBool:
		return strconv.FormatBool(v.b)
	case TypeNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case TypeString:
		return v.s
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := valueFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	return v.Interface(), nil
}

func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := valueFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func valueFromAny(raw any) (Value, error) {
	switch val := raw.(type) {
	case bool:
		return BoolValue(val), nil
	case float64:
		return NumberValue(val), nil
	case int:
		return NumberValue(float64(val)), nil
	case string:
		return StringValue(val), nil
	default:
		return Value{}, fmt.Errorf("story variable must be a bool, number or string, got %T", raw)
	}
}
