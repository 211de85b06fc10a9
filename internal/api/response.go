package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gyaneshwarpardhi/hookrelay/internal/eventpath"
	"github.com/gyaneshwarpardhi/hookrelay/internal/match"
	"github.com/gyaneshwarpardhi/hookrelay/internal/variable"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope. Kind is set for rules-file
// defects so clients can tell them apart without parsing the message.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeRulesError reports a rules file that failed to load or compile.
func writeRulesError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Kind: rulesErrorKind(err)})
}

func rulesErrorKind(err error) string {
	var (
		mpe *eventpath.MalformedPathError
		ire *match.InvalidRuleValueError
		ide *variable.InvalidDefinitionError
	)
	switch {
	case errors.As(err, &mpe):
		return "malformed_path"
	case errors.As(err, &ire):
		return "invalid_rule_value"
	case errors.As(err, &ide):
		return "invalid_definition"
	default:
		return "invalid_config"
	}
}
