package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/flash-cli/internal/config"
	"github.com/sells-group/flash-cli/internal/predict"
)

var transformReport bool

var transformCmd = &cobra.Command{
	Use:   "transform <file.json>",
	Short: "Print the feature vector for an assessment record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(config.ModeOffline); err != nil {
			return err
		}
		rec, err := readRecord(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}
		t, err := predict.NewTransformer(cfg.Lookups)
		if err != nil {
			return err
		}

		features, rep := t.TransformWithReport(rec)
		if !transformReport {
			return printJSON(cmd.OutOrStdout(), features)
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"features":  features,
			"defaulted": rep.Defaulted,
			"unmapped":  rep.Unmapped,
		})
	},
}

func init() {
	transformCmd.Flags().BoolVar(&transformReport, "report", false, "include defaulted and unmapped features")
	rootCmd.AddCommand(transformCmd)
}
