package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/flash-cli/internal/assessment"
	"github.com/sells-group/flash-cli/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file.json>",
	Short: "Validate an assessment record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(config.ModeOffline); err != nil {
			return err
		}
		rec, err := readRecord(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}

		errs := assessment.Validate(rec)
		out := cmd.OutOrStdout()
		if errs.Valid() {
			fmt.Fprintln(out, "valid")
			return nil
		}
		for _, e := range errs {
			fmt.Fprintf(out, "%-12s %-24s %-18s %s\n", e.Page, e.Field, e.Code, e.Message)
		}
		return eris.Errorf("validate: %d errors", len(errs))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
