package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gyaneshwarpardhi/hookrelay/internal/config"
	"github.com/gyaneshwarpardhi/hookrelay/internal/engine"
	"github.com/gyaneshwarpardhi/hookrelay/internal/event"
	"github.com/gyaneshwarpardhi/hookrelay/internal/notification"
)

// loadRules reads, validates and compiles the rules file named by --config.
func loadRules() (*config.RelayConfig, *notification.Set, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	set, err := engine.BuildRules(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", cfgFile, err)
	}
	return cfg, set, nil
}

// readEvent decodes the event in path, or stdin when path is "-".
func readEvent(stdin io.Reader, path string) (*event.Event, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open event: %w", err)
		}
		defer f.Close()
		r = f
	}
	ev, err := event.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ev, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
