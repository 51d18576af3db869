package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/talgya/red-sands/internal/persistence"
)

func reportCmd() *cobra.Command {
	var (
		sols     int
		events   int
		category string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise the run journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.DB.Path == "" {
				return fmt.Errorf("no journal configured (set --db)")
			}
			db, err := persistence.Open(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			return writeReport(cmd.OutOrStdout(), db, sols, events, category, asJSON)
		},
	}
	cmd.Flags().IntVar(&sols, "sols", 10, "number of sol reports to show")
	cmd.Flags().IntVar(&events, "events", 20, "number of recent events to show")
	cmd.Flags().StringVar(&category, "category", "", "event category filter")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func writeReport(out io.Writer, db *persistence.DB, sols, events int, category string, asJSON bool) error {
	history, err := db.StatsHistory(sols)
	if err != nil {
		return fmt.Errorf("stats history: %w", err)
	}
	recent, err := db.RecentEvents(events, category)
	if err != nil {
		return fmt.Errorf("recent events: %w", err)
	}
	runID, _ := db.GetMeta("run_id")

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"run_id": runID,
			"stats":  history,
			"events": recent,
		})
	}

	if runID != "" {
		fmt.Fprintf(out, "Run %s\n", runID)
	}

	st := table.NewWriter()
	st.SetOutputMirror(out)
	st.SetTitle("Sol reports")
	st.AppendHeader(table.Row{"Sol", "Persons", "Travelling", "Moving", "Broken", "Stuck", "Food kg", "Harvest kg", "Odometer km"})
	for _, h := range history {
		st.AppendRow(table.Row{
			h.Sol, h.Persons, h.PeopleTravelling, h.VehiclesMoving, h.VehiclesBroken, h.VehiclesStuck,
			humanize.CommafWithDigits(h.FoodStock, 1),
			humanize.CommafWithDigits(h.TotalHarvest, 1),
			humanize.Comma(int64(h.OdometerKM)),
		})
	}
	st.Render()

	et := table.NewWriter()
	et.SetOutputMirror(out)
	et.SetTitle("Recent events")
	et.AppendHeader(table.Row{"Sol", "Tick", "Category", "Description"})
	for _, e := range recent {
		et.AppendRow(table.Row{e.Sol, e.Tick, e.Category, e.Description})
	}
	et.Render()
	return nil
}
