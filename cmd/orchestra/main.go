// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the orchestra CLI, the visualization
// layer of the literature-search pipeline. The search backend produces
// progress snapshots; orchestra derives render-ready state from them, serves
// it to viewers, and generates methodology reports.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pipeline-orchestra/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the orchestra CLI.
var rootCmd = &cobra.Command{
	Use:   "orchestra",
	Short: "Real-time visualization layer for the literature-search pipeline",
	Long: `orchestra consumes progress snapshots from the academic literature-search
backend and derives the state the renderer animates: per-stage status and
progress, source and ranking-tier nodes, a count-stabilization signal for
animation gating, and a downloadable methodology report.

The backend pushes snapshots into the serve command's ingest websocket;
renderer clients subscribe to the viewer websocket. Recorded runs can be
replayed offline with the replay command.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./orchestra.yaml or ~/.config/orchestra/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("orchestra")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "orchestra"))
		}
	}

	viper.SetEnvPrefix("ORCHESTRA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig merges the defaults with whatever viper picked up from the
// config file and environment.
func loadConfig() types.Config {
	cfg := types.DefaultConfig()

	if v := viper.GetString("server.addr"); v != "" {
		cfg.Server.Addr = v
	}
	if viper.IsSet("server.debug") {
		cfg.Server.Debug = viper.GetBool("server.debug")
	}
	if v := viper.GetString("server.secrets_dir"); v != "" {
		cfg.Server.SecretsDir = v
	}
	if v := viper.GetDuration("stabilizer.quiet_period"); v > 0 {
		cfg.Stabilizer.QuietPeriod = v
	}
	if v := viper.GetDuration("stabilizer.grace_period"); v > 0 {
		cfg.Stabilizer.GracePeriod = v
	}
	if v := viper.GetString("history.dir"); v != "" {
		cfg.History.Dir = v
	}
	if v := viper.GetString("report.output_dir"); v != "" {
		cfg.Report.OutputDir = v
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
