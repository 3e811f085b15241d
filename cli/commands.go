package cli

import (
	"fmt"

	"github.com/robinvdvleuten/scpi/instrument"
)

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry     bool   `help:"Show timing telemetry for operations."`
	Config        string `help:"Instrument configuration file (TOML)." type:"existingfile" placeholder:"FILE"`
	CommandLength int    `help:"Command token capacity (overrides config)." default:"0"`
	ValueLength   int    `help:"Value token capacity including terminator (overrides config)." default:"0"`
}

// InstrumentConfig loads --config, if any, and applies flag overrides.
func (g *Globals) InstrumentConfig() (instrument.Config, error) {
	cfg := instrument.DefaultConfig()
	if g.Config != "" {
		var err error
		if cfg, err = instrument.LoadConfig(g.Config); err != nil {
			return instrument.Config{}, err
		}
	}

	if g.CommandLength > 0 {
		cfg.CommandLength = g.CommandLength
	}
	if g.ValueLength > 0 {
		cfg.ValueLength = g.ValueLength
	}

	if err := cfg.Validate(); err != nil {
		return instrument.Config{}, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

type Commands struct {
	Globals

	Feed    FeedCmd    `cmd:"" help:"Feed an SCPI command script to the simulated instrument."`
	Console ConsoleCmd `cmd:"" help:"Talk to the simulated instrument interactively."`
	Serve   ServeCmd   `cmd:"" help:"Serve the simulated instrument on a raw TCP socket."`
	Num     NumCmd     `cmd:"" help:"Parse and format SCPI numerals."`
	Doctor  DoctorCmd  `cmd:"" help:"Doctor utilities for debugging command streams."`
}
