// Package server exposes an instrument over a raw TCP socket, the way bench
// instruments accept SCPI on port 5025.
//
// Every connection gets its own parser and its own response stream. Register
// state is shared through the instrument, which does its own locking; the
// parsers themselves are never shared between connections.
//
// SECURITY WARNING: there is no authentication. Bind to localhost unless the
// network is trusted.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/robinvdvleuten/scpi"
	"github.com/robinvdvleuten/scpi/instrument"
	"github.com/robinvdvleuten/scpi/stream"
	"github.com/robinvdvleuten/scpi/telemetry"
)

// DefaultPort is the customary raw socket port for SCPI.
const DefaultPort = 5025

type Server struct {
	Host string
	Port int

	// Logger receives connection lifecycle messages. Defaults to stderr.
	Logger *log.Logger

	inst *instrument.Instrument

	mu    sync.Mutex
	ln     net.Listener
	conns  map[string]net.Conn
	closed bool
	wg    sync.WaitGroup
}

// New creates a server for inst listening on 127.0.0.1:port.
func New(inst *instrument.Instrument, port int) *Server {
	return &Server{
		Host:   "127.0.0.1",
		Port:   port,
		Logger: log.New(os.Stderr, "scpi: ", log.LstdFlags),
		inst:   inst,
		conns:  make(map[string]net.Conn),
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprintf("%d", s.Port))
}

// ListenAndServe listens on Addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. It closes ln and
// every open connection before returning, and returns nil on cancellation
// or Close.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	collector := telemetry.FromContext(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		_ = ln.Close()
		s.closeAll()
	}()

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.Logger.Printf("listening on %s", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			stopped := ctx.Err() != nil || errors.Is(err, net.ErrClosed)
			cancel()
			s.wg.Wait()
			if stopped {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		collector.Count("connections", 1)

		id := uuid.NewString()
		if !s.track(id, conn) {
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(id)

			s.handleConn(ctx, id, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, id string, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	s.Logger.Printf("[%s] connected from %s", id, remote)

	p, err := scpi.New(s.inst.Table(conn), s.inst.Config().ParserOptions()...)
	if err != nil {
		s.Logger.Printf("[%s] %v", id, err)
		return
	}

	runner := stream.New(p,
		stream.WithResetOnError(),
		stream.WithErrorHandler(func(err *stream.FeedError) {
			s.inst.PushError(err.Code)
			s.Logger.Printf("[%s] %v", id, err)
		}),
	)

	stats, err := runner.Run(ctx, remote, conn)
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrUnexpectedEOF):
	default:
		s.Logger.Printf("[%s] %v", id, err)
	}

	s.Logger.Printf("[%s] closed after %d bytes, %d commands, %d errors", id, stats.Bytes, stats.Commands, stats.Errors)
}

// Close stops accepting and closes every open connection. Serve returns nil
// once the connection handlers have finished.
func (s *Server) Close() error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.closeAll()
	return err
}

// track registers conn for shutdown. It closes conn and reports false once
// shutdown has begun.
func (s *Server) track(id string, conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		_ = conn.Close()
		return false
	}
	s.conns[id] = conn
	return true
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conn, ok := s.conns[id]; ok {
		_ = conn.Close()
		delete(s.conns, id)
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, conn := range s.conns {
		_ = conn.Close()
	}
}

// Connections returns the number of open connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.conns)
}
