// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pipeline-orchestra/internal/history"
	"github.com/pdiddy/pipeline-orchestra/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived search sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		store, err := history.NewStore(cfg.History)
		if err != nil {
			return fmt.Errorf("opening session archive: %w", err)
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		sessions, err := store.List(limit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No archived sessions.")
			return nil
		}

		fmt.Printf("%-36s  %-30s  %-6s  %-7s  %s\n", "Session", "Query", "Papers", "Quality", "Finished")
		fmt.Println(strings.Repeat("-", 100))
		for _, m := range sessions {
			query := m.Query
			if len(query) > 30 {
				query = query[:27] + "..."
			}
			fmt.Printf("%-36s  %-30s  %-6d  %3d/100  %s\n",
				m.SessionID, query, m.PapersFound, m.Quality,
				m.FinishedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var historyReportCmd = &cobra.Command{
	Use:   "report <session-id>",
	Short: "Regenerate the methodology report for an archived session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		store, err := history.NewStore(cfg.History)
		if err != nil {
			return fmt.Errorf("opening session archive: %w", err)
		}
		defer store.Close()

		m, err := store.Get(args[0])
		if err != nil {
			return fmt.Errorf("session %s not found: %w", args[0], err)
		}

		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			return report.Render(os.Stdout, m)
		}
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		if err := report.Render(f, m); err != nil {
			return err
		}
		fmt.Println("Report written to", out)
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of sessions to list")
	historyReportCmd.Flags().String("out", "", "output file (default: stdout)")

	historyCmd.AddCommand(historyReportCmd)
	rootCmd.AddCommand(historyCmd)
}
