package engine

import (
	"log/slog"

	"github.com/gyaneshwarpardhi/hookrelay/internal/config"
	"github.com/gyaneshwarpardhi/hookrelay/internal/metrics"
	"github.com/gyaneshwarpardhi/hookrelay/internal/notification"
)

// BuildRules validates cfg and compiles its notifications.
func BuildRules(cfg *config.RelayConfig) (*notification.Set, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return notification.Compile(cfg.Notifications)
}

// Apply compiles cfg and, only if that succeeds, makes it the active rule set.
// It has the signature of a config.Loader OnChange callback.
func (e *Engine) Apply(cfg *config.RelayConfig) error {
	set, err := BuildRules(cfg)
	if err != nil {
		metrics.ConfigReloads.WithLabelValues("rejected").Inc()
		slog.Warn("rules reload rejected, keeping active rules", "err", err)
		return err
	}
	e.SwapRules(set)
	metrics.ConfigReloads.WithLabelValues("applied").Inc()
	slog.Info("rules applied", "version", cfg.Version, "notifications", set.Len())
	return nil
}
