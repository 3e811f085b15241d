// Package instrument simulates a small signal source that speaks the scpi
// command subset. It is the reference set of handlers used by the CLI and
// the socket server.
//
// Register state is shared by every session and guarded by a mutex; each
// session gets its own parser and its own response writer through Table.
package instrument

import (
	"fmt"
	"io"
	"sync"

	"github.com/robinvdvleuten/scpi"
)

// Handler specific codes.
const (
	CodeBadValue   scpi.Code = -1 // value is not a valid numeral
	CodeOutOfRange scpi.Code = -2 // value outside the register range
	CodeWrite      scpi.Code = -3 // response could not be written
)

const (
	minVoltage = -10000
	maxVoltage = 10000
)

// Event status register bits, as in IEEE 488.2.
const (
	esrOperationComplete uint8 = 1 << 0
	esrQueryError        uint8 = 1 << 2
	esrExecutionError    uint8 = 1 << 4
	esrCommandError      uint8 = 1 << 5
)

// Instrument holds register state shared by all sessions.
type Instrument struct {
	mu sync.Mutex

	cfg      Config
	settings Settings
	esr      uint8
	errors   []scpi.Code
}

// New powers on an instrument with cfg.
func New(cfg Config) *Instrument {
	return &Instrument{
		cfg:      cfg,
		settings: cfg.PowerOn,
	}
}

// Config returns the configuration the instrument was created with.
func (i *Instrument) Config() Config {
	return i.cfg
}

// Reset restores power-on settings, as *RST does.
func (i *Instrument) Reset() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.settings = i.cfg.PowerOn
}

// PushError records a non-zero code in the error queue and the event status
// register. When the queue is full the oldest entry is dropped.
func (i *Instrument) PushError(code scpi.Code) {
	if code == scpi.CodeOK {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	i.pushError(code)
}

func (i *Instrument) pushError(code scpi.Code) {
	switch code {
	case scpi.CodeSyntaxError, scpi.CodeCommandNotFound:
		i.esr |= esrCommandError
	default:
		i.esr |= esrExecutionError
	}

	// A queue size below one disables the queue; the status bits still latch.
	if i.cfg.ErrorQueue < 1 {
		return
	}
	if len(i.errors) >= i.cfg.ErrorQueue {
		i.errors = i.errors[1:]
	}
	i.errors = append(i.errors, code)
}

// Settings returns the current register values.
func (i *Instrument) Settings() Settings {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.settings
}

// Errors returns the queued error codes, oldest first.
func (i *Instrument) Errors() []scpi.Code {
	i.mu.Lock()
	defer i.mu.Unlock()

	return append([]scpi.Code(nil), i.errors...)
}

// Identity is the *IDN? response without the line terminator.
func (i *Instrument) Identity() string {
	return fmt.Sprintf("%s,%s,%s,%s", i.cfg.Manufacturer, i.cfg.Model, i.cfg.Serial, i.cfg.Firmware)
}

// Table returns a command table whose query responses are written to w.
// Every session should use its own table so responses reach the right peer.
func (i *Instrument) Table(w io.Writer) *scpi.Table {
	s := &session{inst: i, w: w}

	return scpi.NewTable(
		scpi.Command{Name: "*IDN", Handler: scpi.HandlerFunc(s.identify)},
		scpi.Command{Name: "*RST", Handler: scpi.HandlerFunc(s.reset)},
		scpi.Command{Name: "*CLS", Handler: scpi.HandlerFunc(s.clearStatus)},
		scpi.Command{Name: "*OPC", Handler: scpi.HandlerFunc(s.operationComplete)},
		scpi.Command{Name: "*ESR", Handler: scpi.HandlerFunc(s.eventStatus)},
		scpi.Command{Name: "FREQ", Handler: scpi.HandlerFunc(s.frequency)},
		scpi.Command{Name: "VOLT", Handler: scpi.HandlerFunc(s.voltage)},
		scpi.Command{Name: "OUTP", Handler: scpi.HandlerFunc(s.output)},
		scpi.Command{Name: "MEAS", Handler: scpi.HandlerFunc(s.measure)},
		scpi.Command{Name: "ERR", Handler: scpi.HandlerFunc(s.nextError)},
	)
}

func checkVoltage(mv int16) error {
	if mv < minVoltage || mv > maxVoltage {
		return fmt.Errorf("voltage %d mV outside [%d, %d]", mv, minVoltage, maxVoltage)
	}
	return nil
}

// errorMessage is the text part of an ERR? response.
func errorMessage(code scpi.Code) string {
	switch code {
	case scpi.CodeOK:
		return "No error"
	case scpi.CodeSyntaxError:
		return "Syntax error"
	case scpi.CodeCommandNotFound:
		return "Undefined header"
	case scpi.CodeInvalidUse:
		return "Invalid use"
	case CodeBadValue:
		return "Numeric data error"
	case CodeOutOfRange:
		return "Data out of range"
	case CodeWrite:
		return "Response not delivered"
	default:
		return "Device-specific error"
	}
}
