package variable

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Values maps variable names to their resolved text.
type Values map[string]string

// Resolve computes every variable against event. Each entry is independent of
// the others; an unmatched rule table or an absent path yields "".
func Resolve(defs Defs, event any) Values {
	out := make(Values, len(defs))
	for _, n := range defs {
		switch d := n.Def.(type) {
		case DirectPath:
			v, ok := d.Path.Resolve(event)
			if !ok {
				out[n.Name] = ""
				continue
			}
			out[n.Name] = Stringify(v)
		case RuleTable:
			out[n.Name] = ""
			for _, c := range d.Candidates {
				if c.Rule.Matches(event) {
					out[n.Name] = c.Value
					break
				}
			}
		}
	}
	return out
}

// Stringify renders an event value as template text.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x, 64)
	case float32:
		return formatFloat(float64(x), 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// formatFloat prints x in plain decimal, switching to exponent form (1e+21,
// 1.5e-7) when |x| is outside [1e-6, 1e21).
func formatFloat(x float64, bits int) string {
	if a := math.Abs(x); a != 0 && (a >= 1e21 || a < 1e-6) {
		s := strconv.FormatFloat(x, 'e', -1, bits)
		mant, exp, ok := strings.Cut(s, "e")
		if !ok || len(exp) < 2 {
			return s
		}
		return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(x, 'f', -1, bits)
}
