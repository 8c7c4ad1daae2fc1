package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is one connected viewer.
type Session struct {
	ID         uuid.UUID
	Protocol   string // "ssh", "telnet" or "local"
	RemoteAddr string
	User       string
	Term       string // terminal type reported by the client
	StartTime  time.Time

	mu     sync.RWMutex
	width  int
	height int
	frames int
}

// New creates a session with a fresh random ID.
func New(protocol, remoteAddr string) *Session {
	return &Session{
		ID:         uuid.New(),
		Protocol:   protocol,
		RemoteAddr: remoteAddr,
		StartTime:  time.Now(),
	}
}

// SetWindow records the client's terminal size, 0 when unknown.
func (s *Session) SetWindow(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
}

// Window returns the last reported terminal size.
func (s *Session) Window() (width, height int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.width, s.height
}

func (s *Session) countFrame() {
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
}

// Frames is the number of frames sent to this viewer.
func (s *Session) Frames() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}
