package domain

import (
	"fmt"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindInvalid ValueKind = iota
	KindDouble
	KindInt
	KindBool
	KindString
	KindToken
	KindAsset
	KindPath
)

var kindNames = map[ValueKind]string{
	KindInvalid: "invalid",
	KindDouble:  "double",
	KindInt:     "int",
	KindBool:    "bool",
	KindString:  "string",
	KindToken:   "token",
	KindAsset:   "asset",
	KindPath:    "path",
}

func (k ValueKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Value is a closed tagged value. Exactly one payload field is meaningful,
// selected by Kind. The zero Value is invalid.
type Value struct {
	kind ValueKind
	num  float64
	i    int64
	b    bool
	s    string
}

// Double returns a double-precision value.
func Double(v float64) Value { return Value{kind: KindDouble, num: v} }

// Int returns an integer value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// String returns a string value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Token returns a token value.
func Token(v string) Value { return Value{kind: KindToken, s: v} }

// Asset returns an asset-path value.
func Asset(v string) Value { return Value{kind: KindAsset, s: v} }

// PathValue returns a path value.
func PathValue(v Path) Value { return Value{kind: KindPath, s: string(v)} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// IsValid reports whether v holds a payload.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// AsDouble returns the numeric payload of double and int values.
func (v Value) AsDouble() (float64, bool) {
	switch v.kind {
	case KindDouble:
		return v.num, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// AsInt returns the payload of int values.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsBool returns the payload of bool values.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsString returns the payload of string-like values (string, token, asset, path).
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case KindString, KindToken, KindAsset, KindPath:
		return v.s, true
	}
	return "", false
}

// Interface returns the payload as a plain Go value, for serialization.
func (v Value) Interface() any {
	switch v.kind {
	case KindDouble:
		return v.num
	case KindInt:
		return v.i
	case KindBool:
		return v.b
	case KindString, KindToken, KindAsset, KindPath:
		return v.s
	}
	return nil
}

// Equal compares kind and payload.
func (v Value) Equal(other Value) bool {
	return v == other
}

func (v Value) String() string {
	switch v.kind {
	case KindDouble:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return strconv.Quote(v.s)
	case KindToken, KindPath:
		return v.s
	case KindAsset:
		return "@" + v.s + "@"
	}
	return fmt.Sprintf("<%s>", v.kind)
}
