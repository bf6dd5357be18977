package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/flash-cli/internal/config"
)

var predictDraftID string

var predictCmd = &cobra.Command{
	Use:   "predict <file.json>",
	Short: "Validate, transform and score an assessment record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rec, err := readRecord(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}

		svc, st, err := initService(ctx, config.ModePredict)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		res, err := svc.Submit(ctx, rec, predictDraftID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

func init() {
	predictCmd.Flags().StringVar(&predictDraftID, "draft-id", "", "draft ID to attach to the submission")
	rootCmd.AddCommand(predictCmd)
}
