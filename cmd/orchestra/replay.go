// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pipeline-orchestra/internal/derive"
	"github.com/pdiddy/pipeline-orchestra/internal/report"
	"github.com/pdiddy/pipeline-orchestra/internal/scenario"
	"github.com/pdiddy/pipeline-orchestra/internal/session"
)

var replayCmd = &cobra.Command{
	Use:   "replay <scenario.yaml>",
	Short: "Replay a recorded search run through the deriver",
	Long: `Replay feeds a recorded scenario file through a visualization session
frame by frame and prints the derived pipeline state. By default frames are
applied back to back; --realtime paces them at their recorded offsets
(divided by --speed).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := scenario.Read(args[0])
		if err != nil {
			return err
		}

		realtime, _ := cmd.Flags().GetBool("realtime")
		speed, _ := cmd.Flags().GetFloat64("speed")
		if speed <= 0 {
			speed = 1
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		asJSON, _ := cmd.Flags().GetBool("json")

		cfg := loadConfig()
		sess := session.New(cfg.Stabilizer)
		defer sess.Close()

		var last session.Update
		prev := int64(0)
		for i, frame := range sc.Frames {
			if realtime && i > 0 {
				wait := time.Duration(float64(frame.AtMs-prev)/speed) * time.Millisecond
				time.Sleep(wait)
			}
			prev = frame.AtMs

			last = sess.Apply(frame.Snapshot)
			if verbose {
				fmt.Printf("--- frame %d (t=%dms, stabilized=%v)\n", i, frame.AtMs, last.PapersStabilized)
				derive.FormatTable(last.State, os.Stdout)
			}
		}

		if asJSON {
			if err := derive.FormatJSON(last.State, os.Stdout); err != nil {
				return fmt.Errorf("writing JSON: %w", err)
			}
		} else if !verbose {
			fmt.Printf("Replayed %d frames for %q\n\n", len(sc.Frames), sc.Query)
			derive.FormatTable(last.State, os.Stdout)
		}

		if out, _ := cmd.Flags().GetString("report"); out != "" {
			if err := writeReport(out, sess, sc.Query); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "Report written to", out)
		}
		return nil
	},
}

func writeReport(path string, sess *session.Session, query string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()
	return report.Render(f, sess.Metrics(query))
}

func init() {
	replayCmd.Flags().Bool("realtime", false, "pace frames at their recorded offsets")
	replayCmd.Flags().Float64("speed", 1, "realtime speed multiplier")
	replayCmd.Flags().Bool("verbose", false, "print the stage table after every frame")
	replayCmd.Flags().Bool("json", false, "print the final derived state as JSON")
	replayCmd.Flags().String("report", "", "write the methodology report to this file")

	rootCmd.AddCommand(replayCmd)
}
