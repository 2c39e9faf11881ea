package corectx

import (
	"fmt"
	"strconv"
)

// ValueType discriminates the tagged union a Value holds.
type ValueType int

const (
	ValueTypeUnknown ValueType = iota
	ValueTypeString
	ValueTypeInteger
	ValueTypeFloat
	ValueTypeBoolean
	ValueTypeEnum
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeString:
		return "STRING"
	case ValueTypeInteger:
		return "INTEGER"
	case ValueTypeFloat:
		return "FLOAT"
	case ValueTypeBoolean:
		return "BOOLEAN"
	case ValueTypeEnum:
		return "ENUM"
	default:
		return "UNKNOWN"
	}
}

// MaxStringify bounds Value.Bounded, mirroring the fixed-size buffer the
// original stringify operation wrote into.
const MaxStringify = 512

// Value is a tagged union holding exactly one of {string, integer, float,
// boolean, enum-string}. The zero Value has ValueTypeUnknown and every
// setter fails until NewTypedValue pins a type.
type Value struct {
	vtype ValueType
	str   string
	i     int64
	f     float64
	b     bool
	null  bool // string set to "" — legal, not an error
}

// NewTypedValue returns an unset Value already pinned to vtype, the shape
// a Default or Keyval's value has the moment its type is bound.
func NewTypedValue(vtype ValueType) Value {
	return Value{vtype: vtype}
}

func NewStringValue(s string) Value  { v := Value{vtype: ValueTypeString}; _ = v.SetString(s); return v }
func NewIntegerValue(i int64) Value  { return Value{vtype: ValueTypeInteger, i: i} }
func NewFloatValue(f float64) Value  { return Value{vtype: ValueTypeFloat, f: f} }
func NewBooleanValue(b bool) Value   { return Value{vtype: ValueTypeBoolean, b: b} }
func NewEnumValue(s string) Value    { return Value{vtype: ValueTypeEnum, str: s} }

func (v Value) Type() ValueType { return v.vtype }

func (v *Value) checkType(want ValueType) error {
	if v.vtype != want {
		return newErr(StatusWrongValueType, 0, "", "expected %s, value is %s", want, v.vtype)
	}
	return nil
}

// SetString sets a string value. Setting the empty string stores a null
// payload with size 0 rather than erroring.
func (v *Value) SetString(s string) error {
	if err := v.checkType(ValueTypeString); err != nil {
		return err
	}
	if s == "" {
		v.str = ""
		v.null = true
		return nil
	}
	v.str = s
	v.null = false
	return nil
}

func (v Value) GetString() (string, error) {
	if err := v.checkType(ValueTypeString); err != nil {
		return "", err
	}
	return v.str, nil
}

func (v *Value) SetEnum(s string) error {
	if err := v.checkType(ValueTypeEnum); err != nil {
		return err
	}
	v.str = s
	return nil
}

func (v Value) GetEnum() (string, error) {
	if err := v.checkType(ValueTypeEnum); err != nil {
		return "", err
	}
	return v.str, nil
}

func (v *Value) SetInteger(i int64) error {
	if err := v.checkType(ValueTypeInteger); err != nil {
		return err
	}
	v.i = i
	return nil
}

func (v Value) GetInteger() (int64, error) {
	if err := v.checkType(ValueTypeInteger); err != nil {
		return 0, err
	}
	return v.i, nil
}

func (v *Value) SetFloat(f float64) error {
	if err := v.checkType(ValueTypeFloat); err != nil {
		return err
	}
	v.f = f
	return nil
}

func (v Value) GetFloat() (float64, error) {
	if err := v.checkType(ValueTypeFloat); err != nil {
		return 0, err
	}
	return v.f, nil
}

func (v *Value) SetBoolean(b bool) error {
	if err := v.checkType(ValueTypeBoolean); err != nil {
		return err
	}
	v.b = b
	return nil
}

func (v Value) GetBoolean() (bool, error) {
	if err := v.checkType(ValueTypeBoolean); err != nil {
		return false, err
	}
	return v.b, nil
}

// IsNull reports whether a string-typed value holds the empty/null payload.
func (v Value) IsNull() bool { return v.vtype == ValueTypeString && v.null }

// String stringifies the value unconditionally, used for diff reports and
// logging. Unlike the original's fixed buffer, Go strings do not need a
// truncation contract, but Bounded below preserves it for callers that
// still want one.
func (v Value) String() string {
	switch v.vtype {
	case ValueTypeString:
		return v.str
	case ValueTypeEnum:
		return v.str
	case ValueTypeInteger:
		return strconv.FormatInt(v.i, 10)
	case ValueTypeFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case ValueTypeBoolean:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Bounded stringifies the value and truncates to maxLen, always returning a
// valid (possibly empty) string — the Go analogue of "bounded buffer,
// truncating safely, always null-terminated on success".
func (v Value) Bounded(maxLen int) string {
	s := v.String()
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// Equal compares by type then content: integers/floats by numeric order,
// strings/enums by byte comparison, booleans by logical equality. Values of
// differing type are never equal.
func (v Value) Equal(other Value) bool {
	if v.vtype != other.vtype {
		return false
	}
	switch v.vtype {
	case ValueTypeString:
		return v.null == other.null && v.str == other.str
	case ValueTypeEnum:
		return v.str == other.str
	case ValueTypeInteger:
		return v.i == other.i
	case ValueTypeFloat:
		return v.f == other.f
	case ValueTypeBoolean:
		return v.b == other.b
	default:
		return true
	}
}

// Compare orders two same-typed values, returning an error for mismatched
// types (diff and sort paths use Equal instead, since ordering across types
// is meaningless).
func (v Value) Compare(other Value) (int, error) {
	if v.vtype != other.vtype {
		return 0, newErr(StatusWrongValueType, 0, "", "cannot compare %s to %s", v.vtype, other.vtype)
	}
	switch v.vtype {
	case ValueTypeString, ValueTypeEnum:
		switch {
		case v.str < other.str:
			return -1, nil
		case v.str > other.str:
			return 1, nil
		default:
			return 0, nil
		}
	case ValueTypeInteger:
		switch {
		case v.i < other.i:
			return -1, nil
		case v.i > other.i:
			return 1, nil
		default:
			return 0, nil
		}
	case ValueTypeFloat:
		switch {
		case v.f < other.f:
			return -1, nil
		case v.f > other.f:
			return 1, nil
		default:
			return 0, nil
		}
	case ValueTypeBoolean:
		if v.b == other.b {
			return 0, nil
		}
		if !v.b && other.b {
			return -1, nil
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("cannot compare unknown-typed values")
	}
}
