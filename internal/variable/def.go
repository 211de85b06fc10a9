package variable

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/gyaneshwarpardhi/hookrelay/internal/eventpath"
	"github.com/gyaneshwarpardhi/hookrelay/internal/match"
)

// InvalidDefinitionError is returned when a variable definition is neither a
// path string nor a table of match rules.
type InvalidDefinitionError struct {
	Name   string
	Reason string
}

func (e *InvalidDefinitionError) Error() string {
	return fmt.Sprintf("variable %q: %s; a definition must be either a path or an object with match rules", e.Name, e.Reason)
}

// Def is one of DirectPath or RuleTable.
type Def interface {
	def()
}

// DirectPath copies the value found at Path.
type DirectPath struct {
	Path eventpath.Path
}

func (DirectPath) def() {}

// RuleTable assigns the Value of the first Candidate whose Rule matches.
type RuleTable struct {
	Candidates []Candidate
}

func (RuleTable) def() {}

// Candidate is one row of a RuleTable. A candidate written without a match
// block has a zero Rule and therefore always matches.
type Candidate struct {
	Value string
	Rule  match.Rule
}

// Named binds a definition to the variable name used in templates.
type Named struct {
	Name string
	Def  Def
}

// Defs is an ordered list of variable definitions.
type Defs []Named

// Names returns the variable names in definition order.
func (d Defs) Names() []string {
	out := make([]string, len(d))
	for i, n := range d {
		out[i] = n.Name
	}
	return out
}

// Parse reads the `variables` block of a notification. Node order is kept so
// rule-table candidates are tried in the order they are written.
func Parse(node *yaml.Node) (Defs, error) {
	if node == nil || node.Kind == 0 {
		return nil, nil
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	node = deref(node)
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("variables: expected a mapping at line %d, got %s", node.Line, kindName(node))
	}

	defs := make(Defs, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		d, err := parseNode(name, node.Content[i+1])
		if err != nil {
			return nil, err
		}
		defs = append(defs, Named{Name: name, Def: d})
	}
	return defs, nil
}

// deref follows alias nodes (`*anchor`) to the node they refer to.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func parseNode(name string, n *yaml.Node) (Def, error) {
	n = deref(n)
	switch n.Kind {
	case yaml.ScalarNode:
		if n.ShortTag() != "!!str" {
			return nil, &InvalidDefinitionError{Name: name, Reason: fmt.Sprintf("unexpected %s value %q", n.ShortTag(), n.Value)}
		}
		p, err := eventpath.Parse(n.Value)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		return DirectPath{Path: p}, nil

	case yaml.MappingNode:
		table := RuleTable{Candidates: make([]Candidate, 0, len(n.Content)/2)}
		for i := 0; i+1 < len(n.Content); i += 2 {
			value := deref(n.Content[i]).Value
			body := deref(n.Content[i+1])
			if body.Kind != yaml.MappingNode {
				return nil, &InvalidDefinitionError{Name: name, Reason: fmt.Sprintf("candidate %q is %s, not an object", value, kindName(body))}
			}
			var raw map[string]any
			if err := body.Decode(&raw); err != nil {
				return nil, &InvalidDefinitionError{Name: name, Reason: fmt.Sprintf("candidate %q: %v", value, err)}
			}
			c, err := candidate(name, value, raw)
			if err != nil {
				return nil, err
			}
			table.Candidates = append(table.Candidates, c)
		}
		return table, nil

	default:
		return nil, &InvalidDefinitionError{Name: name, Reason: fmt.Sprintf("unexpected %s", kindName(n))}
	}
}

// ParseValue builds a definition from an already decoded value. Go maps carry
// no order, so rule-table candidates are sorted by value.
func ParseValue(name string, raw any) (Def, error) {
	switch v := raw.(type) {
	case string:
		p, err := eventpath.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		return DirectPath{Path: p}, nil
	case map[string]any:
		values := make([]string, 0, len(v))
		for k := range v {
			values = append(values, k)
		}
		sort.Strings(values)
		table := RuleTable{Candidates: make([]Candidate, 0, len(values))}
		for _, value := range values {
			body, ok := v[value].(map[string]any)
			if !ok {
				return nil, &InvalidDefinitionError{Name: name, Reason: fmt.Sprintf("candidate %q is %T, not an object", value, v[value])}
			}
			c, err := candidate(name, value, body)
			if err != nil {
				return nil, err
			}
			table.Candidates = append(table.Candidates, c)
		}
		return table, nil
	default:
		return nil, &InvalidDefinitionError{Name: name, Reason: fmt.Sprintf("unexpected %T", raw)}
	}
}

func candidate(name, value string, body map[string]any) (Candidate, error) {
	c := Candidate{Value: value}
	rawRule, ok := body["match"]
	if !ok || rawRule == nil {
		return c, nil
	}
	ruleMap, ok := rawRule.(map[string]any)
	if !ok {
		return Candidate{}, &InvalidDefinitionError{Name: name, Reason: fmt.Sprintf("candidate %q: match is %T, not an object", value, rawRule)}
	}
	r, err := match.Compile(ruleMap)
	if err != nil {
		return Candidate{}, fmt.Errorf("variable %q candidate %q: %w", name, value, err)
	}
	c.Rule = r
	return c, nil
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "a list"
	case yaml.MappingNode:
		return "a mapping"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	}
	return "an empty node"
}
