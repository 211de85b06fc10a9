package config

import "gopkg.in/yaml.v3"

// RelayConfig is the top-level YAML structure.
type RelayConfig struct {
	Version       string         `yaml:"version" validate:"required"`
	Engine        EngineConf     `yaml:"engine"`
	Delivery      DeliveryConf   `yaml:"delivery"`
	Notifications []Notification `yaml:"notifications" validate:"dive"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	EventWorkers   int `yaml:"event_workers" validate:"min=1"`
	QueueDepth     int `yaml:"queue_depth" validate:"min=1"`
	EventTimeoutMs int `yaml:"event_timeout_ms" validate:"min=1"`
}

// DeliveryConf controls how rendered payloads are posted to webhooks.
type DeliveryConf struct {
	TimeoutMs        int `yaml:"timeout_ms" validate:"min=1"`
	MaxAttempts      int `yaml:"max_attempts" validate:"min=1,max=20"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" validate:"min=0"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" validate:"gtefield=InitialBackoffMs"`
}

// Notification is one entry of the ordered notification list. Entries are
// evaluated top to bottom and the first whose match passes is used; an entry
// without match always passes.
//
// Match and Template stay loosely typed here: match values are checked when the
// rule set is compiled, and the template is an arbitrary structure. Variables
// stay a yaml.Node so rule-table candidates keep their written order.
type Notification struct {
	Name      string         `yaml:"name" validate:"required"`
	Match     map[string]any `yaml:"match,omitempty"`
	Variables yaml.Node      `yaml:"variables,omitempty" validate:"-"`
	Template  any            `yaml:"template" validate:"required"`
	Webhook   string         `yaml:"webhook" validate:"required,http_url"`
}

// HasMatch reports whether the entry was written with a match block.
func (n *Notification) HasMatch() bool {
	return n.Match != nil
}
