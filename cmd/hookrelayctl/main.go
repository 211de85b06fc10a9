// hookrelayctl checks and exercises a hookrelay rules file offline.
//
// Usage:
//
//	hookrelayctl validate --config configs/notifications.yaml
//	hookrelayctl render --config configs/notifications.yaml event.json
//	hookrelayctl send --config configs/notifications.yaml event.json
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	cfgFile string
	verbose bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hookrelayctl",
		Short: "Validate, render and send hookrelay notifications",
		Long: `hookrelayctl works directly on a rules file, without a running server.

  hookrelayctl validate   Check that the rules file loads and compiles
  hookrelayctl render     Show which notification an event selects and its payload
  hookrelayctl send       Render an event and post it to the webhook`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/notifications.yaml", "rules file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(sendCmd())
	return rootCmd
}
