package schema

import (
	"fmt"

	"github.com/aretw0/strata/pkg/domain"
)

// Encode converts a value to the plain form written by format backends.
// Ints stay int64 so YAML and TOML encoders keep them integral.
func Encode(v domain.Value) (any, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("%w: cannot encode %s", domain.ErrInvalidValue, v.Kind())
	}
	return v.Interface(), nil
}

// TypeNameOf returns the declared type tag used when serializing v without
// an explicit attribute type.
func TypeNameOf(v domain.Value) string {
	return v.Kind().String()
}
