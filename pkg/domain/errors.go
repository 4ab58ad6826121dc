package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidPath is returned when a prim path is malformed.
var ErrInvalidPath = errors.New("invalid path")

// ErrInvalidIdentifier is returned when a layer identifier or a default target name is malformed.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// ErrInvalidValue is returned when an attribute value does not match its declared type.
var ErrInvalidValue = errors.New("invalid value")

// ErrPrimNotFound is returned when an edit addresses a prim spec that does not exist.
var ErrPrimNotFound = errors.New("prim not found")

// ErrLayerNotFound is returned when no source can open a layer identifier.
var ErrLayerNotFound = errors.New("layer not found")

// ErrLayerExists is returned when registering an identifier that is already loaded.
var ErrLayerExists = errors.New("layer already registered")

// ErrAssetNotFound is returned by asset stores for unknown identifiers.
var ErrAssetNotFound = errors.New("asset not found")

// ErrUnknownFormat is returned when no format backend handles an identifier.
var ErrUnknownFormat = errors.New("unknown layer format")

// ErrNoDefaultTarget is reported when a path-less reference targets a layer
// without a usable default target.
var ErrNoDefaultTarget = errors.New("no default target")

// ErrReferenceCycle is reported when a resolution chain revisits a site.
var ErrReferenceCycle = errors.New("reference cycle")

// ErrDepthExceeded is reported when a reference chain is deeper than the configured cap.
var ErrDepthExceeded = errors.New("reference chain too deep")

// ErrRegistryClosed is returned by a registry after Close.
var ErrRegistryClosed = errors.New("registry closed")

// ErrorKind classifies composition diagnostics.
type ErrorKind string

const (
	ErrorNoDefaultTarget ErrorKind = "NoDefaultTarget"
	ErrorLayerNotFound   ErrorKind = "LayerNotFound"
	ErrorReferenceCycle  ErrorKind = "ReferenceCycle"
	ErrorDepthExceeded   ErrorKind = "DepthExceeded"
)

// Sentinel returns the sentinel error matching the kind.
func (k ErrorKind) Sentinel() error {
	switch k {
	case ErrorNoDefaultTarget:
		return ErrNoDefaultTarget
	case ErrorLayerNotFound:
		return ErrLayerNotFound
	case ErrorReferenceCycle:
		return ErrReferenceCycle
	case ErrorDepthExceeded:
		return ErrDepthExceeded
	}
	return nil
}

// CompositionError is a non-fatal diagnostic collected while building a
// prim index. The arc that produced it contributes no entries.
type CompositionError struct {
	Kind      ErrorKind
	Site      Site      // site owning the failing arc
	Reference Reference // the failing arc
	Detail    string
}

func (e *CompositionError) Error() string {
	msg := fmt.Sprintf("%s: %s at %s via %s", e.Kind, e.Kind.Sentinel(), e.Site, e.Reference)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap exposes the sentinel so errors.Is works.
func (e *CompositionError) Unwrap() error {
	return e.Kind.Sentinel()
}
