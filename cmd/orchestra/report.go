// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pipeline-orchestra/internal/scenario"
	"github.com/pdiddy/pipeline-orchestra/internal/session"
)

var reportCmd = &cobra.Command{
	Use:   "report <scenario.yaml>",
	Short: "Generate the methodology report for a recorded run",
	Long: `Report derives final metrics from a recorded scenario's terminal frame
and writes the self-contained HTML methodology report.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := scenario.Read(args[0])
		if err != nil {
			return err
		}

		cfg := loadConfig()
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			if err := os.MkdirAll(cfg.Report.OutputDir, 0o755); err != nil {
				return fmt.Errorf("creating report directory: %w", err)
			}
			out = filepath.Join(cfg.Report.OutputDir, "methodology-report.html")
		}

		sess := session.New(cfg.Stabilizer)
		defer sess.Close()
		for _, frame := range sc.Frames {
			sess.Apply(frame.Snapshot)
		}

		if err := writeReport(out, sess, sc.Query); err != nil {
			return err
		}
		fmt.Println("Report written to", out)
		return nil
	},
}

func init() {
	reportCmd.Flags().String("out", "", "output file (default: <report.output_dir>/methodology-report.html)")

	rootCmd.AddCommand(reportCmd)
}
