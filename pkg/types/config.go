// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ServerConfig holds settings for the live streaming server.
type ServerConfig struct {
	// Addr is the listen address (default ":8137").
	Addr string `json:"addr" yaml:"addr"`

	// Debug switches logging to a human-readable console encoder.
	Debug bool `json:"debug" yaml:"debug"`

	// SecretsDir is the directory holding the optional ingest-token file.
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir"`
}

// StabilizerConfig holds the timing constants for count stabilization.
type StabilizerConfig struct {
	// QuietPeriod is how long a nonzero count must stay unchanged before it
	// is considered settled (default 1.5s).
	QuietPeriod time.Duration `json:"quiet_period" yaml:"quiet_period"`

	// GracePeriod is how long a settled signal persists after the producer
	// goes inactive (default 4s; must exceed QuietPeriod).
	GracePeriod time.Duration `json:"grace_period" yaml:"grace_period"`
}

// HistoryConfig holds settings for the session archive.
type HistoryConfig struct {
	// Dir is the directory containing the archive database (default "data").
	Dir string `json:"dir" yaml:"dir"`
}

// ReportConfig holds settings for methodology report generation.
type ReportConfig struct {
	// OutputDir is where generated reports are written (default "output/reports").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// Config groups all component configurations.
type Config struct {
	Server     ServerConfig     `json:"server" yaml:"server"`
	Stabilizer StabilizerConfig `json:"stabilizer" yaml:"stabilizer"`
	History    HistoryConfig    `json:"history" yaml:"history"`
	Report     ReportConfig     `json:"report" yaml:"report"`
}

// DefaultConfig returns the configuration used when no file or flags
// override it.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:       ":8137",
			SecretsDir: ".secrets/",
		},
		Stabilizer: StabilizerConfig{
			QuietPeriod: 1500 * time.Millisecond,
			GracePeriod: 4 * time.Second,
		},
		History: HistoryConfig{Dir: "data"},
		Report:  ReportConfig{OutputDir: "output/reports"},
	}
}
