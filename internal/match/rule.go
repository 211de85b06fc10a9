package match

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/gyaneshwarpardhi/hookrelay/internal/eventpath"
)

// InvalidRuleValueError is returned when the allowed values for a path are not
// written as a list, e.g. `"$.source": aws.codebuild` instead of
// `"$.source": [aws.codebuild]`.
type InvalidRuleValueError struct {
	Path  string
	Value any
}

func (e *InvalidRuleValueError) Error() string {
	return fmt.Sprintf("match %q: value %v (%T) is not wrapped in a list", e.Path, e.Value, e.Value)
}

// Condition is a single membership test: the value at Path must be one of Allowed.
type Condition struct {
	Path    eventpath.Path
	Allowed []any
}

// Rule is a conjunction of conditions. The zero Rule matches every event.
type Rule struct {
	conditions []Condition
}

// Compile turns a raw path → values mapping into a Rule. Every entry is
// validated, so a malformed rule is rejected even if an earlier condition
// would never match.
func Compile(raw map[string]any) (Rule, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]Condition, 0, len(keys))
	for _, k := range keys {
		p, err := eventpath.Parse(k)
		if err != nil {
			return Rule{}, err
		}
		allowed, ok := toList(raw[k])
		if !ok {
			return Rule{}, &InvalidRuleValueError{Path: k, Value: raw[k]}
		}
		conds = append(conds, Condition{Path: p, Allowed: allowed})
	}
	return Rule{conditions: conds}, nil
}

// Conditions returns the compiled conditions ordered by path.
func (r Rule) Conditions() []Condition {
	return r.conditions
}

// Matches reports whether every condition holds for event.
func (r Rule) Matches(event any) bool {
	for _, c := range r.conditions {
		v, ok := c.Path.Resolve(event)
		if !ok {
			return false
		}
		if !contains(c.Allowed, v) {
			return false
		}
	}
	return true
}

// Evaluate compiles raw and tests it against event.
func Evaluate(raw map[string]any, event any) (bool, error) {
	r, err := Compile(raw)
	if err != nil {
		return false, err
	}
	return r.Matches(event), nil
}

func contains(allowed []any, v any) bool {
	for _, a := range allowed {
		if equal(a, v) {
			return true
		}
	}
	return false
}

// toList accepts any slice or array; scalars and mappings are rejected.
func toList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
