package instrument

import (
	"io"

	"github.com/robinvdvleuten/scpi"
)

// session binds the shared instrument to one response writer.
type session struct {
	inst *Instrument
	w    io.Writer
}

func (s *session) respond(line []byte) scpi.Code {
	line = append(line, '\n')
	if _, err := s.w.Write(line); err != nil {
		s.inst.mu.Lock()
		s.inst.esr |= esrQueryError
		s.inst.mu.Unlock()
		return CodeWrite
	}
	return scpi.CodeOK
}

func (s *session) respondInt(v int16) scpi.Code {
	return s.respond(scpi.AppendInt16(make([]byte, 0, scpi.MaxInt16Width+1), v))
}

func (s *session) respondBool(v bool) scpi.Code {
	if v {
		return s.respondInt(1)
	}
	return s.respondInt(0)
}

func (s *session) identify(_ *scpi.Parser, kind scpi.Kind) scpi.Code {
	if kind != scpi.Query {
		return scpi.CodeInvalidUse
	}
	return s.respond([]byte(s.inst.Identity()))
}

func (s *session) reset(_ *scpi.Parser, kind scpi.Kind) scpi.Code {
	if kind != scpi.Event {
		return scpi.CodeInvalidUse
	}
	s.inst.Reset()
	return scpi.CodeOK
}

func (s *session) clearStatus(_ *scpi.Parser, kind scpi.Kind) scpi.Code {
	if kind != scpi.Event {
		return scpi.CodeInvalidUse
	}

	s.inst.mu.Lock()
	defer s.inst.mu.Unlock()

	s.inst.errors = s.inst.errors[:0]
	s.inst.esr = 0
	return scpi.CodeOK
}

func (s *session) operationComplete(_ *scpi.Parser, kind scpi.Kind) scpi.Code {
	switch kind {
	case scpi.Query:
		// Every command completes inline, so operations are always done.
		return s.respondInt(1)
	case scpi.Event:
		s.inst.mu.Lock()
		s.inst.esr |= esrOperationComplete
		s.inst.mu.Unlock()
		return scpi.CodeOK
	default:
		return scpi.CodeInvalidUse
	}
}

// eventStatus reads and clears the event status register.
func (s *session) eventStatus(_ *scpi.Parser, kind scpi.Kind) scpi.Code {
	if kind != scpi.Query {
		return scpi.CodeInvalidUse
	}

	s.inst.mu.Lock()
	esr := s.inst.esr
	s.inst.esr = 0
	s.inst.mu.Unlock()

	return s.respondInt(int16(esr))
}

func (s *session) frequency(p *scpi.Parser, kind scpi.Kind) scpi.Code {
	switch kind {
	case scpi.Query:
		return s.respondInt(s.inst.Settings().Frequency)
	case scpi.Set:
		v, err := scpi.ParseInt16(p.Value())
		if err != nil {
			return CodeBadValue
		}
		if v < 0 {
			return CodeOutOfRange
		}
		s.inst.mu.Lock()
		s.inst.settings.Frequency = v
		s.inst.mu.Unlock()
		return scpi.CodeOK
	default:
		return scpi.CodeInvalidUse
	}
}

func (s *session) voltage(p *scpi.Parser, kind scpi.Kind) scpi.Code {
	switch kind {
	case scpi.Query:
		return s.respondInt(s.inst.Settings().Voltage)
	case scpi.Set:
		v, err := scpi.ParseInt16(p.Value())
		if err != nil {
			return CodeBadValue
		}
		if checkVoltage(v) != nil {
			return CodeOutOfRange
		}
		s.inst.mu.Lock()
		s.inst.settings.Voltage = v
		s.inst.mu.Unlock()
		return scpi.CodeOK
	default:
		return scpi.CodeInvalidUse
	}
}

func (s *session) output(p *scpi.Parser, kind scpi.Kind) scpi.Code {
	switch kind {
	case scpi.Query:
		return s.respondBool(s.inst.Settings().Output)
	case scpi.Set:
		on, err := scpi.ParseBool(p.Value())
		if err != nil {
			return CodeBadValue
		}
		s.inst.mu.Lock()
		s.inst.settings.Output = on
		s.inst.mu.Unlock()
		return scpi.CodeOK
	default:
		return scpi.CodeInvalidUse
	}
}

// measure reports the voltage present at the output terminals.
func (s *session) measure(_ *scpi.Parser, kind scpi.Kind) scpi.Code {
	if kind != scpi.Query {
		return scpi.CodeInvalidUse
	}

	settings := s.inst.Settings()
	if !settings.Output {
		return s.respondInt(0)
	}
	return s.respondInt(settings.Voltage)
}

// nextError pops the oldest queued error as `code,"message"`.
func (s *session) nextError(_ *scpi.Parser, kind scpi.Kind) scpi.Code {
	if kind != scpi.Query {
		return scpi.CodeInvalidUse
	}

	s.inst.mu.Lock()
	code := scpi.CodeOK
	if len(s.inst.errors) > 0 {
		code = s.inst.errors[0]
		s.inst.errors = s.inst.errors[1:]
	}
	s.inst.mu.Unlock()

	line := scpi.AppendInt16(nil, int16(code))
	line = append(line, ',', '"')
	line = append(line, errorMessage(code)...)
	line = append(line, '"')
	return s.respond(line)
}
