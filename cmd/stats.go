package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/flash-cli/internal/config"
	"github.com/sells-group/flash-cli/internal/monitoring"
)

var statsHours int

type statsOutput struct {
	Snapshot *monitoring.MetricsSnapshot `json:"snapshot"`
	Alerts   []monitoring.Alert          `json:"alerts"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recent submissions and the alerts they would raise",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, config.ModeStore)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		hours := statsHours
		if hours <= 0 {
			hours = cfg.Monitoring.LookbackWindowHours
		}

		snap, err := monitoring.NewCollector(st, nil).Collect(ctx, hours)
		if err != nil {
			return err
		}

		alerts := monitoring.NewAlerter(cfg.Monitoring).Evaluate(snap)
		if alerts == nil {
			alerts = []monitoring.Alert{}
		}
		return printJSON(cmd.OutOrStdout(), statsOutput{Snapshot: snap, Alerts: alerts})
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsHours, "hours", 0, "lookback window in hours (default from config)")
	rootCmd.AddCommand(statsCmd)
}
