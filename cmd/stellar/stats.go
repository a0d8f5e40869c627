package main

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stellar-server/internal/config"
	"stellar-server/internal/game"
	"stellar-server/internal/stats"
)

var (
	statsDays  int
	statsLimit int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print recorded event counts and top killers",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(envDir)
		if err != nil {
			return err
		}
		if cfg.StatsDB == "" || cfg.StatsDB == ":memory:" {
			return fmt.Errorf("STATS_DB must name a database file")
		}
		db, err := stats.OpenDB(cfg.StatsDB)
		if err != nil {
			return err
		}
		defer db.Close()

		recorder := stats.NewRecorder(db, zap.NewNop())
		defer recorder.Stop()

		counts, err := recorder.EventCounts(statsDays)
		if err != nil {
			return err
		}
		top, err := recorder.TopPlayers(game.EvtKill, statsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "EVENT\tCOUNT\n")
		for _, evt := range slices.Sorted(maps.Keys(counts)) {
			fmt.Fprintf(w, "%s\t%d\n", evt, counts[evt])
		}
		fmt.Fprintf(w, "\nPLAYER\tKILLS\n")
		for _, pc := range top {
			fmt.Fprintf(w, "%s\t%d\n", pc.PlayerID, pc.Count)
		}
		return w.Flush()
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "how many days back to count events")
	statsCmd.Flags().IntVar(&statsLimit, "limit", 10, "number of top killers to list")
}
