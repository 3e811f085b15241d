package instrument

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Snapshot is a point-in-time view of the registers in engineering units.
type Snapshot struct {
	Frequency decimal.Decimal // kHz
	Voltage   decimal.Decimal // V
	Output    bool
	Status    uint8
	Errors    int
}

// Snapshot converts the raw integer registers into engineering units.
func (i *Instrument) Snapshot() Snapshot {
	i.mu.Lock()
	defer i.mu.Unlock()

	return Snapshot{
		Frequency: decimal.New(int64(i.settings.Frequency), -3),
		Voltage:   decimal.New(int64(i.settings.Voltage), -3),
		Output:    i.settings.Output,
		Status:    i.esr,
		Errors:    len(i.errors),
	}
}

// Rows returns label and value pairs for display.
func (s Snapshot) Rows() [][2]string {
	output := "off"
	if s.Output {
		output = "on"
	}

	return [][2]string{
		{"Frequency", s.Frequency.StringFixed(3) + " kHz"},
		{"Voltage", s.Voltage.StringFixed(3) + " V"},
		{"Output", output},
		{"Event status", fmt.Sprintf("0x%02X", s.Status)},
		{"Queued errors", fmt.Sprintf("%d", s.Errors)},
	}
}
