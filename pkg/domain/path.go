package domain

import (
	"fmt"
	"strings"
)

// Path is an absolute prim path, e.g. "/world/chair".
// The zero value is the empty path and means "no path".
type Path string

// AbsoluteRoot is the pseudo-root of every layer namespace.
const AbsoluteRoot Path = "/"

// ParsePath validates s and returns it as a Path.
// Paths must be absolute, must not end with a separator and every
// segment must be a valid identifier.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if s == string(AbsoluteRoot) {
		return AbsoluteRoot, nil
	}
	if !strings.HasPrefix(s, "/") {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalidPath, s)
	}
	for _, seg := range strings.Split(s[1:], "/") {
		if !IsValidIdentifier(seg) {
			return "", fmt.Errorf("%w: %q has invalid segment %q", ErrInvalidPath, s, seg)
		}
	}
	return Path(s), nil
}

// MustParsePath is like ParsePath but panics on error.
// Intended for literals in tests and examples.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// IsValidIdentifier reports whether name is usable as a path segment
// or as a default target name.
func IsValidIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// IsEmpty reports whether p is the zero path.
func (p Path) IsEmpty() bool { return p == "" }

// IsRoot reports whether p is the absolute root.
func (p Path) IsRoot() bool { return p == AbsoluteRoot }

// String implements fmt.Stringer.
func (p Path) String() string { return string(p) }

// Name returns the last segment of the path ("" for the root).
func (p Path) Name() string {
	if p.IsEmpty() || p.IsRoot() {
		return ""
	}
	return string(p[strings.LastIndexByte(string(p), '/')+1:])
}

// Parent returns the parent path. The parent of a root prim is AbsoluteRoot
// and the parent of AbsoluteRoot is the empty path.
func (p Path) Parent() Path {
	if p.IsEmpty() || p.IsRoot() {
		return ""
	}
	i := strings.LastIndexByte(string(p), '/')
	if i == 0 {
		return AbsoluteRoot
	}
	return p[:i]
}

// AppendChild returns p/name. name is not validated.
func (p Path) AppendChild(name string) Path {
	if p.IsRoot() {
		return Path("/" + name)
	}
	return Path(string(p) + "/" + name)
}

// Depth returns the number of segments in p.
func (p Path) Depth() int {
	if p.IsEmpty() || p.IsRoot() {
		return 0
	}
	return strings.Count(string(p), "/")
}

// HasPrefix reports whether prefix is p or one of p's ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if prefix.IsRoot() {
		return !p.IsEmpty()
	}
	if p == prefix {
		return true
	}
	return strings.HasPrefix(string(p), string(prefix)+"/")
}

// ReplacePrefix maps p from the namespace rooted at oldPrefix into the
// namespace rooted at newPrefix. It returns the empty path when p is not
// under oldPrefix.
func (p Path) ReplacePrefix(oldPrefix, newPrefix Path) Path {
	if !p.HasPrefix(oldPrefix) {
		return ""
	}
	if p == oldPrefix {
		return newPrefix
	}
	rel := strings.TrimPrefix(string(p), string(oldPrefix))
	if oldPrefix.IsRoot() {
		rel = "/" + rel
	}
	if newPrefix.IsRoot() {
		return Path(rel)
	}
	return Path(string(newPrefix) + rel)
}

// Ancestors returns the proper ancestors of p, nearest first, excluding
// the absolute root.
func (p Path) Ancestors() []Path {
	var out []Path
	for a := p.Parent(); !a.IsEmpty() && !a.IsRoot(); a = a.Parent() {
		out = append(out, a)
	}
	return out
}

// RootPrimPath returns the path of the root prim called name.
func RootPrimPath(name string) Path {
	return AbsoluteRoot.AppendChild(name)
}
