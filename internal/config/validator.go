package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config for:
//   - Required fields and sane tunables (struct tags)
//   - Duplicate notification names
//
// Match rules and variables are checked when the rule set is compiled.
func Validate(cfg *RelayConfig) error {
	var errs []string

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, describe(fe))
		}
	}

	seen := make(map[string]int) // name → index
	for i, n := range cfg.Notifications {
		if n.Name == "" {
			continue
		}
		if prev, ok := seen[n.Name]; ok {
			errs = append(errs, fmt.Sprintf("duplicate notification name %q (notifications[%d] and notifications[%d])", n.Name, prev, i))
		} else {
			seen[n.Name] = i
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "RelayConfig.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "http_url":
		return fmt.Sprintf("%s must be an http(s) URL, got %q", field, fe.Value())
	case "min", "max", "gtefield":
		return fmt.Sprintf("%s fails %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s fails %s", field, fe.Tag())
}
