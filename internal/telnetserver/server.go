// Package telnetserver serves the live screen to telnet clients, including
// BBS terminals that expect CP437.
package telnetserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/muesli/termenv"

	"github.com/stlalpha/petscii/internal/session"
)

// DefaultNegotiationWait bounds each round of option negotiation.
const DefaultNegotiationWait = 500 * time.Millisecond

// Config holds telnet server configuration.
type Config struct {
	Port            int
	Host            string
	Handler         *session.Handler
	NegotiationWait time.Duration
}

// Server is a telnet server that listens for TCP connections
// and wraps them with telnet protocol handling.
type Server struct {
	listener net.Listener
	config   Config
	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewServer creates a new telnet server instance.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Handler == nil {
		return nil, errors.New("session handler is required")
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.NegotiationWait <= 0 {
		cfg.NegotiationWait = DefaultNegotiationWait
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{config: cfg, ctx: ctx, cancel: cancel}, nil
}

// ListenAndServe starts listening for telnet connections and blocks.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	log.Printf("INFO: Telnet server listening on %s", addr)
	return s.Serve(listener)
}

// Serve accepts connections on l until Close is called.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		l.Close()
		return nil
	}
	s.listener = l
	s.mu.Unlock()

	for {
		conn, err := l.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.listener == nil
			s.mu.Unlock()
			if closed {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				log.Printf("ERROR: Telnet accept error: %v", err)
				continue
			}
			return fmt.Errorf("telnet accept: %w", err)
		}
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	remoteAddr := conn.RemoteAddr().String()
	log.Printf("INFO: Telnet connection from %s", remoteAddr)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: Telnet panic handling %s: %v", remoteAddr, r)
		}
		conn.Close()
		log.Printf("INFO: Telnet connection closed from %s", remoteAddr)
	}()

	tc := NewTelnetConn(conn)
	if err := tc.Negotiate(s.config.NegotiationWait); err != nil {
		log.Printf("ERROR: Telnet negotiation failed for %s: %v", remoteAddr, err)
		return
	}

	vs := session.New("telnet", remoteAddr)
	vs.Term = tc.TermType()
	vs.SetWindow(tc.WindowSize())
	tc.OnWindow(vs.SetWindow)

	// Telnet clients rarely report color depth; 256 colors is the safe
	// ceiling for UTF-8 terminals.
	h := *s.config.Handler
	h.Profile = termenv.ANSI256

	// Closing the connection when ctx ends unblocks the key reader.
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if err := h.Serve(ctx, tc, vs); err != nil {
		log.Printf("WARN: Telnet session %s: %v", vs.ID, err)
	}
}

// Close stops accepting connections, ends active sessions and waits for
// them to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	l := s.listener
	s.listener = nil
	s.cancel()
	s.mu.Unlock()
	var err error
	if l != nil {
		err = l.Close()
	}
	s.wg.Wait()
	return err
}
