package schema

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/aretw0/strata/pkg/domain"
)

// Type defines the contract for an attribute value type.
// Implementations convert raw decoded document values (as produced by JSON,
// YAML or TOML decoders) into typed domain values.
type Type interface {
	// Name returns the declared type tag (e.g., "double", "token").
	Name() string
	// Kind returns the value variant produced by Coerce.
	Kind() domain.ValueKind
	// Coerce converts a raw decoded value into a domain value.
	Coerce(raw any) (domain.Value, error)
}

// --- Built-in Type Implementations ---

// DoubleType accepts any numeric value.
type DoubleType struct{ name string }

func (t *DoubleType) Name() string           { return t.name }
func (t *DoubleType) Kind() domain.ValueKind { return domain.KindDouble }

func (t *DoubleType) Coerce(raw any) (domain.Value, error) {
	f, ok := toFloat(raw)
	if !ok {
		return domain.Value{}, fmt.Errorf("expected number, got %T", raw)
	}
	return domain.Double(f), nil
}

// IntType accepts integers and whole floats (JSON decodes every number as float64).
type IntType struct{}

func (t *IntType) Name() string           { return "int" }
func (t *IntType) Kind() domain.ValueKind { return domain.KindInt }

func (t *IntType) Coerce(raw any) (domain.Value, error) {
	switch v := raw.(type) {
	case int:
		return domain.Int(int64(v)), nil
	case int8:
		return domain.Int(int64(v)), nil
	case int16:
		return domain.Int(int64(v)), nil
	case int32:
		return domain.Int(int64(v)), nil
	case int64:
		return domain.Int(v), nil
	case uint8:
		return domain.Int(int64(v)), nil
	case uint16:
		return domain.Int(int64(v)), nil
	case uint32:
		return domain.Int(int64(v)), nil
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return domain.Value{}, fmt.Errorf("expected int, got %q", v.String())
		}
		return domain.Int(i), nil
	case float32, float64:
		f, _ := toFloat(v)
		if f != math.Trunc(f) {
			return domain.Value{}, fmt.Errorf("expected int, got float (not a whole number)")
		}
		return domain.Int(int64(f)), nil
	default:
		return domain.Value{}, fmt.Errorf("expected int, got %T", raw)
	}
}

// BoolType accepts booleans.
type BoolType struct{}

func (t *BoolType) Name() string           { return "bool" }
func (t *BoolType) Kind() domain.ValueKind { return domain.KindBool }

func (t *BoolType) Coerce(raw any) (domain.Value, error) {
	b, ok := raw.(bool)
	if !ok {
		return domain.Value{}, fmt.Errorf("expected bool, got %T", raw)
	}
	return domain.Bool(b), nil
}

// TextType covers the string-like variants (string, token, asset).
type TextType struct {
	name string
	kind domain.ValueKind
}

func (t *TextType) Name() string           { return t.name }
func (t *TextType) Kind() domain.ValueKind { return t.kind }

func (t *TextType) Coerce(raw any) (domain.Value, error) {
	s, ok := raw.(string)
	if !ok {
		return domain.Value{}, fmt.Errorf("expected %s, got %T", t.name, raw)
	}
	switch t.kind {
	case domain.KindToken:
		return domain.Token(s), nil
	case domain.KindAsset:
		return domain.Asset(s), nil
	default:
		return domain.String(s), nil
	}
}

// PathType accepts absolute prim paths.
type PathType struct{}

func (t *PathType) Name() string           { return "path" }
func (t *PathType) Kind() domain.ValueKind { return domain.KindPath }

func (t *PathType) Coerce(raw any) (domain.Value, error) {
	s, ok := raw.(string)
	if !ok {
		return domain.Value{}, fmt.Errorf("expected path, got %T", raw)
	}
	p, err := domain.ParsePath(s)
	if err != nil {
		return domain.Value{}, err
	}
	return domain.PathValue(p), nil
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// --- Factory Functions ---

// Double creates the double-precision type.
func Double() Type { return &DoubleType{name: "double"} }

// Int creates the integer type.
func Int() Type { return &IntType{} }

// Bool creates the boolean type.
func Bool() Type { return &BoolType{} }

// String creates the string type.
func String() Type { return &TextType{name: "string", kind: domain.KindString} }

// Token creates the token type.
func Token() Type { return &TextType{name: "token", kind: domain.KindToken} }

// Asset creates the asset-path type.
func Asset() Type { return &TextType{name: "asset", kind: domain.KindAsset} }

// Path creates the prim-path type.
func Path() Type { return &PathType{} }

// ParseType converts a declared type tag to a Type.
// "float" and "half" are accepted as aliases of double.
func ParseType(typeName string) (Type, error) {
	switch typeName {
	case "double":
		return Double(), nil
	case "float", "half":
		return &DoubleType{name: typeName}, nil
	case "int", "int64":
		return Int(), nil
	case "bool":
		return Bool(), nil
	case "string":
		return String(), nil
	case "token":
		return Token(), nil
	case "asset":
		return Asset(), nil
	case "path":
		return Path(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeName)
	}
}

// TypeFor returns the canonical type for a value variant.
func TypeFor(kind domain.ValueKind) (Type, error) {
	return ParseType(kind.String())
}
