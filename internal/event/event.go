package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Event is an inbound notification source event, e.g. an EventBridge
// "CodeBuild Build State Change". Body is the decoded JSON object and is never
// modified after Decode returns.
type Event struct {
	ID         string         `json:"id"`
	ReceivedAt time.Time      `json:"received_at"`
	Body       map[string]any `json:"body"`
}

// New wraps an already decoded body.
func New(body map[string]any) *Event {
	ev := &Event{ReceivedAt: time.Now(), Body: body}
	if id, ok := body["id"].(string); ok && id != "" {
		ev.ID = id
	} else {
		ev.ID = uuid.New().String()
	}
	return ev
}

// Decode reads a single JSON object from r.
func Decode(r io.Reader) (*Event, error) {
	var body map[string]any
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if body == nil {
		return nil, errors.New("event must be a JSON object")
	}
	return New(body), nil
}

// DecodeBatch reads a JSON array of objects from r.
func DecodeBatch(r io.Reader) ([]*Event, error) {
	var bodies []map[string]any
	if err := json.NewDecoder(r).Decode(&bodies); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	out := make([]*Event, 0, len(bodies))
	for i, b := range bodies {
		if b == nil {
			return nil, fmt.Errorf("events[%d]: event must be a JSON object", i)
		}
		out = append(out, New(b))
	}
	return out, nil
}
