package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/alephplay/internal/history"
	"github.com/llehouerou/alephplay/internal/playlist"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently finished tracks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		ledger, err := history.Open(cfg.History.Path, nil)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer ledger.Close()

		listens, err := ledger.Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(listens) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No listens recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tTRACK\tARTIST\tLISTENED\tREASON")
		for _, l := range listens {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				humanize.Time(l.FinishedAt),
				l.Title,
				l.Artist,
				playlist.FormatDuration(l.Listened),
				l.Reason,
			)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of listens to show")
	rootCmd.AddCommand(historyCmd)
}
