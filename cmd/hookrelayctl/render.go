package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/hookrelay/internal/notification"
)

func renderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render EVENT.json",
		Short: "Show which notification an event selects and the payload it produces",
		Long: `Render evaluates the rules against an event and prints the selected
notification, its resolved variables and the payload that would be posted.
Nothing is sent. Use "-" to read the event from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: runRender,
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	_, set, err := loadRules()
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
	return printJSON(cmd.OutOrStdout(), msg)
}
