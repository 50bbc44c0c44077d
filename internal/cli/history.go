package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded upload runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runHistory(cmd, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show; 0 shows all")
	return cmd
}

func (a *App) runHistory(cmd *cobra.Command, limit int) error {
	if a.cfg.JournalDSN == "" {
		return errors.New("journal is disabled")
	}
	ctx := cmd.Context()

	j, err := a.openJournal(ctx)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.History(ctx, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tDATASET\tFILES\tUPLOADED\tFAILED\tFINALIZED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%t\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.DatasetPID, r.Files, r.Uploaded, r.Failed, r.Finalized)
	}
	return tw.Flush()
}
