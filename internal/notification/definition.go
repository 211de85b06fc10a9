package notification

import (
	"fmt"

	"github.com/gyaneshwarpardhi/hookrelay/internal/config"
	"github.com/gyaneshwarpardhi/hookrelay/internal/match"
	"github.com/gyaneshwarpardhi/hookrelay/internal/template"
	"github.com/gyaneshwarpardhi/hookrelay/internal/variable"
)

// Definition is a compiled notification entry.
type Definition struct {
	Name      string
	Match     *match.Rule // nil: no match block, always selected when reached
	Variables variable.Defs
	Template  any
	Webhook   string
}

// Matches reports whether the definition applies to event.
func (d *Definition) Matches(event any) bool {
	return d.Match == nil || d.Match.Matches(event)
}

// Set is an ordered, immutable list of compiled definitions. A new Set is
// built on every config reload and swapped in whole.
type Set struct {
	defs []*Definition
}

// NewSet wraps already compiled definitions.
func NewSet(defs ...*Definition) *Set {
	return &Set{defs: defs}
}

// Compile validates every match rule and variable definition up front so that
// nothing is re-inspected while events are processed.
func Compile(entries []config.Notification) (*Set, error) {
	defs := make([]*Definition, 0, len(entries))
	for i := range entries {
		d, err := compileOne(&entries[i])
		if err != nil {
			return nil, fmt.Errorf("notifications[%d] %q: %w", i, entries[i].Name, err)
		}
		defs = append(defs, d)
	}
	return &Set{defs: defs}, nil
}

func compileOne(n *config.Notification) (*Definition, error) {
	d := &Definition{
		Name:     n.Name,
		Template: template.Normalize(n.Template),
		Webhook:  n.Webhook,
	}
	if n.HasMatch() {
		r, err := match.Compile(n.Match)
		if err != nil {
			return nil, err
		}
		d.Match = &r
	}
	vars, err := variable.Parse(&n.Variables)
	if err != nil {
		return nil, err
	}
	d.Variables = vars
	return d, nil
}

// Definitions returns the definitions in evaluation order.
func (s *Set) Definitions() []*Definition {
	if s == nil {
		return nil
	}
	return s.defs
}

// Len returns the number of definitions.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.defs)
}
