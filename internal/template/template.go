// Package template fills `<name>` placeholders in arbitrary nested payloads.
package template

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Replacer substitutes a fixed set of variables. Build one per event.
type Replacer struct {
	re     *regexp.Regexp // nil when there are no variables
	values map[string]string
	names  []string
}

// NewReplacer compiles a single case-insensitive pattern matching `<name>` for
// every variable name. Tokens for names not in vars are never matched.
func NewReplacer(vars map[string]string) *Replacer {
	r := &Replacer{values: make(map[string]string, len(vars))}
	if len(vars) == 0 {
		return r
	}
	r.names = make([]string, 0, len(vars))
	for name := range vars {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	alts := make([]string, len(r.names))
	for i, name := range r.names {
		alts[i] = regexp.QuoteMeta("<" + name + ">")
		key := strings.ToLower(name)
		if _, dup := r.values[key]; !dup {
			r.values[key] = vars[name]
		}
	}
	r.re = regexp.MustCompile("(?i)" + strings.Join(alts, "|"))
	return r
}

// String replaces every token in s. The result is not rescanned, so a value
// that looks like a token is emitted literally.
func (r *Replacer) String(s string) string {
	if r.re == nil {
		return s
	}
	return r.re.ReplaceAllStringFunc(s, r.lookup)
}

func (r *Replacer) lookup(token string) string {
	name := token[1 : len(token)-1]
	if v, ok := r.values[strings.ToLower(name)]; ok {
		return v
	}
	// (?i) folds a few runes ToLower does not (e.g. the Kelvin sign).
	for _, n := range r.names {
		if strings.EqualFold(n, name) {
			return r.values[strings.ToLower(n)]
		}
	}
	return token
}

// Apply returns a deep copy of tmpl with every string leaf substituted.
func (r *Replacer) Apply(tmpl any) any {
	switch n := tmpl.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = r.Apply(v)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = r.Apply(v)
		}
		return out
	case string:
		return r.String(n)
	default:
		return n
	}
}

// Normalize returns a copy of tmpl in which every mapping is a
// map[string]any. YAML decodes a mapping with any non-string key (such as
// `200: ok`) as map[any]any, which Apply would not descend into and JSON
// cannot encode; its keys are converted with their YAML text form.
func Normalize(tmpl any) any {
	switch n := tmpl.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = Normalize(v)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[keyString(k)] = Normalize(v)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = Normalize(v)
		}
		return out
	default:
		return n
	}
}

func keyString(k any) string {
	switch k := k.(type) {
	case nil:
		return "null"
	case string:
		return k
	default:
		return fmt.Sprint(k)
	}
}

// Substitute returns a copy of tmpl with `<name>` tokens replaced by vars.
// tmpl itself is left untouched.
func Substitute(tmpl any, vars map[string]string) any {
	return NewReplacer(vars).Apply(tmpl)
}
