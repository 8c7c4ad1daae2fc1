// Package sshserver serves the live screen to SSH clients. It wraps
// gliderlabs/ssh and keeps the legacy algorithm suites that retro terminal
// clients (SyncTERM, NetRunner) still need.
package sshserver

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/gliderlabs/ssh"
	"github.com/muesli/termenv"
	gossh "golang.org/x/crypto/ssh"

	"github.com/stlalpha/petscii/internal/logging"
	"github.com/stlalpha/petscii/internal/session"
)

// Config holds SSH server configuration.
type Config struct {
	HostKeyPath         string // generated on first start when missing
	Host                string
	Port                int
	LegacySSHAlgorithms bool
	Handler             *session.Handler
	Version             string // banner version, default "PETSCII"
}

// Server wraps a gliderlabs/ssh server.
type Server struct {
	inner   *ssh.Server
	handler *session.Handler
}

// NewServer creates and configures a new SSH server. Viewers need no
// credentials; any user name is accepted.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Handler == nil {
		return nil, errors.New("sshserver: nil session handler")
	}
	signer, err := loadOrCreateHostKey(cfg.HostKeyPath)
	if err != nil {
		return nil, err
	}
	version := cfg.Version
	if version == "" {
		version = "PETSCII"
	}

	s := &Server{handler: cfg.Handler}
	s.inner = &ssh.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     s.handleSession,
		HostSigners: []ssh.Signer{signer},
		Version:     version,
		ConnectionFailedCallback: func(conn net.Conn, err error) {
			log.Printf("WARN: SSH connection failed from %s: %v", conn.RemoteAddr(), err)
		},
	}

	legacy := cfg.LegacySSHAlgorithms
	s.inner.ServerConfigCallback = func(ctx ssh.Context) *gossh.ServerConfig {
		sc := &gossh.ServerConfig{}
		if legacy {
			logging.Debug("SSH legacy algorithms enabled for %s", ctx.RemoteAddr())
			sc.Config.KeyExchanges = legacyKeyExchanges
			sc.Config.Ciphers = legacyCiphers
			sc.Config.MACs = legacyMACs
		}
		return sc
	}
	return s, nil
}

// Older suites appended after the modern defaults.
var (
	legacyKeyExchanges = []string{
		"curve25519-sha256",
		"curve25519-sha256@libssh.org",
		"ecdh-sha2-nistp256",
		"ecdh-sha2-nistp384",
		"ecdh-sha2-nistp521",
		"diffie-hellman-group14-sha256",
		"diffie-hellman-group14-sha1",
		"diffie-hellman-group1-sha1",
	}
	legacyCiphers = []string{
		"chacha20-poly1305@openssh.com",
		"aes128-gcm@openssh.com",
		"aes256-gcm@openssh.com",
		"aes128-ctr",
		"aes192-ctr",
		"aes256-ctr",
		"aes128-cbc",
		"3des-cbc",
	}
	legacyMACs = []string{
		"hmac-sha2-256-etm@openssh.com",
		"hmac-sha2-256",
		"hmac-sha2-512",
		"hmac-sha1",
	}
)

// ListenAndServe binds to the configured address and serves SSH connections.
// It blocks until the server is closed.
func (s *Server) ListenAndServe() error {
	log.Printf("INFO: SSH server listening on %s", s.inner.Addr)
	return s.inner.ListenAndServe()
}

// Serve starts serving on an existing listener. Blocks until closed.
func (s *Server) Serve(l net.Listener) error {
	return s.inner.Serve(l)
}

// Close shuts down the server and all active connections.
func (s *Server) Close() error {
	return s.inner.Close()
}

func (s *Server) handleSession(sess ssh.Session) {
	ptyReq, winCh, isPty := sess.Pty()
	if !isPty {
		io.WriteString(sess, "A terminal is required. Try: ssh -t\r\n")
		sess.Exit(1)
		return
	}

	vs := session.New("ssh", sess.RemoteAddr().String())
	vs.User = sess.User()
	vs.Term = ptyReq.Term
	vs.SetWindow(ptyReq.Window.Width, ptyReq.Window.Height)
	go func() {
		for win := range winCh {
			vs.SetWindow(win.Width, win.Height)
			logging.Debug("Session %s: window %dx%d", vs.ID, win.Width, win.Height)
		}
	}()

	h := *s.handler
	h.Profile = profileFor(sess.Environ())

	if err := h.Serve(sess.Context(), sess, vs); err != nil {
		log.Printf("WARN: SSH session %s: %v", vs.ID, err)
		sess.Exit(1)
		return
	}
	sess.Exit(0)
}

// profileFor picks a color profile from the client's environment. Most SSH
// clients forward COLORTERM when they support 24-bit color.
func profileFor(environ []string) termenv.Profile {
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k == "COLORTERM" {
			if v == "truecolor" || v == "24bit" {
				return termenv.TrueColor
			}
		}
	}
	return termenv.ANSI256
}

// loadOrCreateHostKey reads the PEM host key at path, generating an ed25519
// key there if the file does not exist.
func loadOrCreateHostKey(path string) (ssh.Signer, error) {
	keyBytes, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("INFO: Generating SSH host key %s", path)
		keyBytes, err = generateHostKey(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read host key %s: %w", path, err)
	}
	signer, err := gossh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse host key %s: %w", path, err)
	}
	return signer, nil
}

func generateHostKey(path string) ([]byte, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	block, err := gossh.MarshalPrivateKey(priv, "petscii host key")
	if err != nil {
		return nil, err
	}
	keyBytes := pem.EncodeToMemory(block)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, keyBytes, 0600); err != nil {
		return nil, err
	}
	return keyBytes, nil
}
