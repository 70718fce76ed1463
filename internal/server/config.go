package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete server configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Tables []TableConfig  `hcl:"table,block"`
}

// ServerSettings contains server-level configuration.
type ServerSettings struct {
	Address             string `hcl:"address,optional"`
	Port                int    `hcl:"port,optional"`
	LogLevel            string `hcl:"log_level,optional"`
	LedgerPath          string `hcl:"ledger_path,optional"`
	ActionTimeoutSecs   int    `hcl:"action_timeout_secs,optional"`
	EntropyIntervalSecs int    `hcl:"entropy_interval_secs,optional"`
	SweepIntervalSecs   int    `hcl:"sweep_interval_secs,optional"`
}

// TableConfig defines a table opened at startup.
type TableConfig struct {
	Name       string `hcl:"name,label"`
	MaxPlayers int    `hcl:"max_players,optional"`
	BigBlind   int64  `hcl:"big_blind"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerSettings{
			Address:             "localhost",
			Port:                8080,
			LogLevel:            "info",
			LedgerPath:          "pokerd.db",
			ActionTimeoutSecs:   300,
			EntropyIntervalSecs: 30,
			SweepIntervalSecs:   10,
		},
		Tables: []TableConfig{
			{Name: "main", MaxPlayers: 6, BigBlind: 2},
		},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to defaults
// when the file does not exist.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig().Server
	if config.Server.Address == "" {
		config.Server.Address = defaults.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.LogLevel
	}
	if config.Server.LedgerPath == "" {
		config.Server.LedgerPath = defaults.LedgerPath
	}
	if config.Server.ActionTimeoutSecs == 0 {
		config.Server.ActionTimeoutSecs = defaults.ActionTimeoutSecs
	}
	if config.Server.EntropyIntervalSecs == 0 {
		config.Server.EntropyIntervalSecs = defaults.EntropyIntervalSecs
	}
	if config.Server.SweepIntervalSecs == 0 {
		config.Server.SweepIntervalSecs = defaults.SweepIntervalSecs
	}
	for i := range config.Tables {
		if config.Tables[i].MaxPlayers == 0 {
			config.Tables[i].MaxPlayers = 6
		}
	}
	return &config, nil
}
