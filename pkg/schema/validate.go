package schema

import (
	"fmt"
	"slices"

	"github.com/aretw0/strata/pkg/domain"
)

// Coerce converts raw into a value of the declared type.
func Coerce(typeName string, raw any) (domain.Value, error) {
	typ, err := ParseType(typeName)
	if err != nil {
		return domain.Value{}, err
	}
	v, err := typ.Coerce(raw)
	if err != nil {
		return domain.Value{}, fmt.Errorf("%w: %w", domain.ErrInvalidValue, err)
	}
	return v, nil
}

// CheckValue verifies that an already typed value matches a declared type.
func CheckValue(typeName string, v domain.Value) error {
	typ, err := ParseType(typeName)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidValue, err)
	}
	if v.Kind() != typ.Kind() {
		return fmt.Errorf("%w: %s value for %s attribute", domain.ErrInvalidValue, v.Kind(), typeName)
	}
	return nil
}

// ValidateAttributes checks that every attribute declares a supported type
// and that authored defaults match it.
// Returns an error with all validation failures found.
func ValidateAttributes(path domain.Path, attrs map[string]domain.AttributeSpec) error {
	if len(attrs) == 0 {
		return nil
	}

	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	slices.Sort(names)

	var errs []error
	for _, name := range names {
		attr := attrs[name]
		key := fmt.Sprintf("%s.%s", path, name)

		if !domain.IsValidIdentifier(name) {
			errs = append(errs, &ValidationError{Key: key, Reason: "invalid attribute name"})
			continue
		}
		if _, err := ParseType(attr.TypeName); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error()})
			continue
		}
		if attr.HasDefault() {
			if err := CheckValue(attr.TypeName, *attr.Default); err != nil {
				errs = append(errs, &ValidationError{
					Key:    key,
					Reason: err.Error(),
					Value:  attr.Default.Interface(),
				})
			}
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
