package instrument

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/scpi"
)

type bench struct {
	inst *Instrument
	out  *bytes.Buffer
	p    *scpi.Parser
}

func newBench(t *testing.T) *bench {
	t.Helper()

	inst := New(DefaultConfig())
	out := &bytes.Buffer{}
	p, err := scpi.New(inst.Table(out), inst.Config().ParserOptions()...)
	assert.NoError(t, err)

	return &bench{inst: inst, out: out, p: p}
}

// send feeds input and returns the code of the final byte together with
// everything the instrument responded.
func (b *bench) send(input string) (scpi.Code, string) {
	b.out.Reset()
	var code scpi.Code
	for i := 0; i < len(input); i++ {
		c := b.p.Feed(input[i])
		if c != scpi.CodeOK {
			code = c
			b.inst.PushError(c)
		}
	}
	return code, b.out.String()
}

func TestIdentify(t *testing.T) {
	b := newBench(t)

	code, out := b.send("*IDN?\n")
	assert.Equal(t, scpi.CodeOK, code)
	assert.Equal(t, "Bench Works,SG-1,0,1.0\n", out)

	code, _ = b.send("*IDN\n")
	assert.Equal(t, scpi.CodeInvalidUse, code)
}

func TestFrequency(t *testing.T) {
	b := newBench(t)

	_, out := b.send("FREQ?\n")
	assert.Equal(t, "1000\n", out)

	code, _ := b.send("freq #1F40\n")
	assert.Equal(t, scpi.CodeOK, code)
	_, out = b.send(":SOUR:FREQ?\n")
	assert.Equal(t, "8000\n", out)

	code, _ = b.send("FREQ 12x\n")
	assert.Equal(t, scpi.CodeOK, code)
	assert.Equal(t, int16(12), b.inst.Settings().Frequency)

	code, _ = b.send("FREQ x\n")
	assert.Equal(t, CodeBadValue, code)
	code, _ = b.send("FREQ -5\n")
	assert.Equal(t, CodeOutOfRange, code)
	code, _ = b.send("FREQ\n")
	assert.Equal(t, scpi.CodeInvalidUse, code)
	assert.Equal(t, int16(12), b.inst.Settings().Frequency)
}

func TestVoltageAndMeasure(t *testing.T) {
	b := newBench(t)

	code, _ := b.send("VOLT -2500;OUTP 1\n")
	assert.Equal(t, scpi.CodeOK, code)

	_, out := b.send("VOLT?;MEAS?;OUTP?\n")
	assert.Equal(t, "-2500\n-2500\n1\n", out)

	b.send("OUTP 0\n")
	_, out = b.send("MEAS?\n")
	assert.Equal(t, "0\n", out)

	code, _ = b.send("VOLT 20000\n")
	assert.Equal(t, CodeOutOfRange, code)
	code, _ = b.send("MEAS 5\n")
	assert.Equal(t, scpi.CodeInvalidUse, code)
	code, _ = b.send("OUTP ON\n")
	assert.Equal(t, CodeBadValue, code)
}

func TestResetRestoresPowerOn(t *testing.T) {
	b := newBench(t)

	b.send("FREQ 5;VOLT 100;OUTP 1\n")
	code, _ := b.send("*RST\n")
	assert.Equal(t, scpi.CodeOK, code)
	assert.Equal(t, DefaultConfig().PowerOn, b.inst.Settings())

	code, _ = b.send("*RST?\n")
	assert.Equal(t, scpi.CodeInvalidUse, code)
}

func TestErrorQueue(t *testing.T) {
	b := newBench(t)

	b.send("AMPL 3\n")
	b.send("FREQ x\n")

	_, out := b.send("SYST:ERR?\n")
	assert.Equal(t, "2,\"Undefined header\"\n", out)
	_, out = b.send("ERR?\n")
	assert.Equal(t, "-1,\"Numeric data error\"\n", out)
	_, out = b.send("ERR?\n")
	assert.Equal(t, "0,\"No error\"\n", out)
}

func TestErrorQueueDropsOldest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ErrorQueue = 2
	inst := New(cfg)

	inst.PushError(scpi.CodeSyntaxError)
	inst.PushError(scpi.CodeOK)
	inst.PushError(scpi.CodeCommandNotFound)
	inst.PushError(CodeOutOfRange)

	assert.Equal(t, []scpi.Code{scpi.CodeCommandNotFound, CodeOutOfRange}, inst.Errors())
}

func TestErrorQueueDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ErrorQueue = 0

	for _, inst := range []*Instrument{New(cfg), New(Config{})} {
		inst.PushError(scpi.CodeSyntaxError)
		inst.PushError(CodeBadValue)

		assert.Equal(t, 0, len(inst.Errors()))
		assert.Equal(t, esrCommandError|esrExecutionError, inst.Snapshot().Status)
	}
}

func TestEventStatus(t *testing.T) {
	b := newBench(t)

	_, out := b.send("*ESR?\n")
	assert.Equal(t, "0\n", out)

	b.send("*OPC;NOPE\n")
	b.send("VOLT 99999\n")
	_, out = b.send("*ESR?\n")
	assert.Equal(t, "49\n", out)
	_, out = b.send("*ESR?\n")
	assert.Equal(t, "0\n", out)

	_, out = b.send("*OPC?\n")
	assert.Equal(t, "1\n", out)

	b.send("NOPE\n")
	code, _ := b.send("*CLS\n")
	assert.Equal(t, scpi.CodeOK, code)
	assert.Equal(t, 0, len(b.inst.Errors()))
	assert.Equal(t, uint8(0), b.inst.Snapshot().Status)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestResponseWriteFailure(t *testing.T) {
	inst := New(DefaultConfig())
	p, err := scpi.New(inst.Table(failingWriter{}))
	assert.NoError(t, err)

	_, err = p.Write([]byte("FREQ?\n"))
	var codeErr *scpi.CodeError
	assert.True(t, errors.As(err, &codeErr))
	assert.Equal(t, CodeWrite, codeErr.Code)
	assert.Equal(t, esrQueryError, inst.Snapshot().Status)
}

func TestSnapshot(t *testing.T) {
	b := newBench(t)
	b.send("FREQ 1500;VOLT -250;OUTP 1\n")

	rows := b.inst.Snapshot().Rows()
	assert.Equal(t, [2]string{"Frequency", "1.500 kHz"}, rows[0])
	assert.Equal(t, [2]string{"Voltage", "-0.250 V"}, rows[1])
	assert.Equal(t, [2]string{"Output", "on"}, rows[2])
	assert.Equal(t, [2]string{"Event status", "0x00"}, rows[3])
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "bench.toml")
	assert.NoError(t, os.WriteFile(path, []byte(`
model = "SG-2"
serial = "42"
value_length = 8

[power_on]
frequency = 50
voltage = -100
output = true
`), 0o600))

	cfg, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "Bench Works", cfg.Manufacturer)
	assert.Equal(t, "SG-2", cfg.Model)
	assert.Equal(t, 8, cfg.ValueLength)
	assert.Equal(t, Settings{Frequency: 50, Voltage: -100, Output: true}, cfg.PowerOn)
	assert.Equal(t, "Bench Works,SG-2,42,1.0", New(cfg).Identity())
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown key", "modle = \"x\"\n", "unknown keys"},
		{"short commands", "command_length = 3\n", "command_length"},
		{"voltage range", "[power_on]\nvoltage = 12000\n", "power_on.voltage"},
		{"malformed", "model = \n", "failed to load"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			assert.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := LoadConfig(path)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
