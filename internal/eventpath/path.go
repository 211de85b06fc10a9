package eventpath

import (
	"fmt"
	"strings"
)

// Root is the sentinel every path must start with.
const Root = "$"

// MalformedPathError is returned when a path does not start with "$".
type MalformedPathError struct {
	Path string
}

func (e *MalformedPathError) Error() string {
	return fmt.Sprintf("path %q is missing the leading %s", e.Path, Root)
}

// Path is a parsed dot-notation locator such as "$.detail.build-status".
type Path struct {
	raw      string
	segments []string // ["detail", "build-status"]
}

// Parse validates raw and splits it into segments. Everything before the
// first "." is the "$" head; the keys after it are taken literally, empty
// ones included, so "$.a..b" looks up the key "" between "a" and "b".
func Parse(raw string) (Path, error) {
	if !strings.HasPrefix(raw, Root) {
		return Path{}, &MalformedPathError{Path: raw}
	}
	segments := strings.Split(raw, ".")[1:]
	return Path{raw: raw, segments: segments}, nil
}

// MustParse is like Parse but panics on a malformed path. Intended for tests
// and package-level literals.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the path as written in the config.
func (p Path) String() string { return p.raw }

// Segments returns a copy of the key chain.
func (p Path) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// Resolve walks root along the path. The second return value is false when any
// segment is missing or an intermediate value is not a mapping. A path with no
// keys ("$") names nothing and is always absent.
func (p Path) Resolve(root any) (any, bool) {
	if len(p.segments) == 0 {
		return nil, false
	}
	return resolve(root, p.segments)
}

func resolve(v any, path []string) (any, bool) {
	if len(path) == 0 {
		return v, true
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	val, ok := m[path[0]]
	if !ok {
		return nil, false
	}
	return resolve(val, path[1:])
}

// Extract parses raw and resolves it against root in one step.
func Extract(root any, raw string) (any, bool, error) {
	p, err := Parse(raw)
	if err != nil {
		return nil, false, err
	}
	v, ok := p.Resolve(root)
	return v, ok, nil
}
