// Package schema defines the attribute value types understood by layers.
//
// Format backends decode documents into plain Go values (float64,
// json.Number, int64, string, bool). Each attribute in a layer declares a
// type tag, and this package turns the raw value into a typed domain.Value:
//
//	v, err := schema.Coerce("double", 1.234)
//	// v.Kind() == domain.KindDouble
//
// Supported tags are double (aliases float and half), int, bool, string,
// token, asset and path. ValidateAttributes checks a prim's authored
// attributes and reports every failure at once through AggregateError.
package schema
