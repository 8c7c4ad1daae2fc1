package session

import (
	"errors"
	"net"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrTooManySessions is returned by Register when the registry is full.
	ErrTooManySessions = errors.New("too many sessions")
	// ErrTooManyFromHost is returned by Register when the session's host
	// already has its share of sessions.
	ErrTooManyFromHost = errors.New("too many sessions from host")
)

// Registry tracks all active viewer sessions.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	max      int
	maxHost  int
	perHost  map[string]int
}

// NewRegistry creates a registry holding at most max sessions; max <= 0
// means no limit.
func NewRegistry(max int) *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		max:      max,
		perHost:  make(map[string]int),
	}
}

// SetMaxPerHost limits sessions sharing one remote host; n <= 0 means no
// limit.
func (r *Registry) SetMaxPerHost(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maxHost = n
}

func (r *Registry) Register(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 && len(r.sessions) >= r.max {
		return ErrTooManySessions
	}
	host := remoteHost(s.RemoteAddr)
	if r.maxHost > 0 && r.perHost[host] >= r.maxHost {
		return ErrTooManyFromHost
	}
	r.sessions[s.ID] = s
	r.perHost[host]++
	return nil
}

func (r *Registry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)
	host := remoteHost(s.RemoteAddr)
	if r.perHost[host]--; r.perHost[host] <= 0 {
		delete(r.perHost, host)
	}
}

// remoteHost strips the port from addr.
func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

func (r *Registry) Get(id uuid.UUID) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// ListActive returns the sessions oldest first.
func (r *Registry) ListActive() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartTime.Equal(result[j].StartTime) {
			return result[i].StartTime.Before(result[j].StartTime)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result
}
