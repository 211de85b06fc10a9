package notification

import (
	"github.com/gyaneshwarpardhi/hookrelay/internal/template"
	"github.com/gyaneshwarpardhi/hookrelay/internal/variable"
)

// Select returns the first definition that applies to event, or nil when none
// does. Later definitions are never consulted once one is selected, so more
// specific entries must come before catch-alls.
func Select(defs []*Definition, event any) *Definition {
	for _, d := range defs {
		if d.Matches(event) {
			return d
		}
	}
	return nil
}

// Message is a fully rendered notification ready for delivery.
type Message struct {
	Notification string          `json:"notification"`
	Webhook      string          `json:"-"`
	Variables    variable.Values `json:"variables"`
	Payload      any             `json:"payload"`
}

// Render selects a definition for event, resolves its variables and fills its
// template. It returns nil when no definition applies.
func Render(s *Set, event any) *Message {
	d := Select(s.Definitions(), event)
	if d == nil {
		return nil
	}
	vars := variable.Resolve(d.Variables, event)
	return &Message{
		Notification: d.Name,
		Webhook:      d.Webhook,
		Variables:    vars,
		Payload:      template.Substitute(d.Template, vars),
	}
}
