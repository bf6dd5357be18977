package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/flash-cli/internal/assessment"
	"github.com/sells-group/flash-cli/internal/config"
	"github.com/sells-group/flash-cli/internal/store"
)

var (
	draftsLimit  int
	draftsOffset int
)

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Inspect saved wizard drafts",
}

var draftsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List drafts, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context(), config.ModeStore)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		drafts, err := st.ListDrafts(cmd.Context(), store.DraftFilter{Limit: draftsLimit, Offset: draftsOffset})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCOMPANY\tSTEP\tPROGRESS\tUPDATED")
		for _, d := range drafts {
			p := assessment.ComputeProgress(d.Record)
			fmt.Fprintf(w, "%s\t%s\t%d/%d\t%.0f%%\t%s\n",
				d.ID, d.Record.CompanyName(), d.CurrentStep, assessment.ReviewStep, p.Percent,
				d.UpdatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var draftsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a draft with its validation state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context(), config.ModeStore)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		d, err := st.GetDraft(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if d == nil {
			return eris.Wrapf(store.ErrNotFound, "draft %s", args[0])
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"draft":    d,
			"errors":   assessment.Validate(d.Record),
			"progress": assessment.ComputeProgress(d.Record),
		})
	},
}

var draftsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a draft",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context(), config.ModeStore)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.DeleteDraft(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	draftsListCmd.Flags().IntVar(&draftsLimit, "limit", 50, "max drafts to list")
	draftsListCmd.Flags().IntVar(&draftsOffset, "offset", 0, "drafts to skip")
	draftsCmd.AddCommand(draftsListCmd, draftsShowCmd, draftsDeleteCmd)
	rootCmd.AddCommand(draftsCmd)
}
