package instrument

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/robinvdvleuten/scpi"
)

// Config describes the simulated instrument and the parser sizing used for
// its sessions. It can be loaded from a TOML file:
//
//	manufacturer = "Bench Works"
//	model = "SG-1"
//	command_length = 4
//	value_length = 16
//
//	[power_on]
//	frequency = 1000
//	voltage = 500
type Config struct {
	Manufacturer  string   `toml:"manufacturer"`
	Model         string   `toml:"model"`
	Serial        string   `toml:"serial"`
	Firmware      string   `toml:"firmware"`
	CommandLength int      `toml:"command_length"`
	ValueLength   int      `toml:"value_length"`
	ErrorQueue    int      `toml:"error_queue"`
	PowerOn       Settings `toml:"power_on"`
}

// Settings are the register values applied on power-on and *RST.
type Settings struct {
	Frequency int16 `toml:"frequency"` // Hz
	Voltage   int16 `toml:"voltage"`   // mV
	Output    bool  `toml:"output"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Manufacturer:  "Bench Works",
		Model:         "SG-1",
		Serial:        "0",
		Firmware:      "1.0",
		CommandLength: scpi.DefaultCommandLength,
		ValueLength:   scpi.DefaultValueLength,
		ErrorQueue:    16,
		PowerOn: Settings{
			Frequency: 1000,
			Voltage:   0,
		},
	}
}

// LoadConfig reads path on top of DefaultConfig. Unknown keys are rejected so
// that typos do not silently fall back to defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("unknown keys in config %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise fail later.
func (c Config) Validate() error {
	if c.CommandLength < 4 {
		return fmt.Errorf("command_length must be at least 4, got %d", c.CommandLength)
	}
	if c.ValueLength < 2 {
		return fmt.Errorf("value_length must be at least 2, got %d", c.ValueLength)
	}
	if c.ErrorQueue < 1 {
		return fmt.Errorf("error_queue must be positive, got %d", c.ErrorQueue)
	}
	if err := checkVoltage(c.PowerOn.Voltage); err != nil {
		return fmt.Errorf("power_on.voltage: %w", err)
	}
	if c.PowerOn.Frequency < 0 {
		return fmt.Errorf("power_on.frequency must not be negative, got %d", c.PowerOn.Frequency)
	}
	return nil
}

// ParserOptions returns the parser sizing for sessions of this instrument.
func (c Config) ParserOptions() []scpi.Option {
	return []scpi.Option{
		scpi.WithCommandLength(c.CommandLength),
		scpi.WithValueLength(c.ValueLength),
	}
}
