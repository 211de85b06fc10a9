package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/hookrelay/internal/delivery"
	"github.com/gyaneshwarpardhi/hookrelay/internal/notification"
)

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send EVENT.json",
		Short: "Render an event and post it to the selected webhook",
		Long: `Send renders the event like "render" does and posts the payload once,
retrying transient failures as configured in the delivery section.`,
		Args: cobra.ExactArgs(1),
		RunE: runSend,
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, set, err := loadRules()
	if err != nil {
		return err
	}
	ev, err := readEvent(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	msg := notification.Render(set, ev.Body)
	if msg == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "no notification selected")
		return nil
	}

	d := delivery.NewRetrying(
		delivery.NewWebhook(time.Duration(cfg.Delivery.TimeoutMs)*time.Millisecond),
		delivery.RetryConfig{
			MaxAttempts:    cfg.Delivery.MaxAttempts,
			InitialBackoff: time.Duration(cfg.Delivery.InitialBackoffMs) * time.Millisecond,
			MaxBackoff:     time.Duration(cfg.Delivery.MaxBackoffMs) * time.Millisecond,
		},
	)
	if err := d.Deliver(cmd.Context(), msg); err != nil {
		return fmt.Errorf("send %q: %w", msg.Notification, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "delivered %q (event %s)\n", msg.Notification, ev.ID)
	return nil
}
