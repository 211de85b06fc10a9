package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the rules file loads and compiles",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, set, err := loadRules()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: ok (version %s, %d notifications)\n", cfgFile, cfg.Version, set.Len())
	for i, d := range set.Definitions() {
		cond := "always"
		if d.Match != nil {
			cond = fmt.Sprintf("%d conditions", len(d.Match.Conditions()))
		}
		fmt.Fprintf(out, "  %d. %s [%s, %d variables]\n", i+1, d.Name, cond, len(d.Variables))
	}
	return nil
}
