package telnetserver

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/stlalpha/petscii/internal/logging"
)

// Telnet protocol constants
const (
	IAC  byte = 255 // Interpret As Command
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250 // Subnegotiation Begin
	SE   byte = 240 // Subnegotiation End

	OptEcho     byte = 1
	OptSGA      byte = 3  // Suppress Go Ahead
	OptTermType byte = 24 // RFC 1091
	OptNAWS     byte = 31 // Negotiate About Window Size
	OptLinemode byte = 34

	TermTypeIs   byte = 0
	TermTypeSend byte = 1
)

const maxSubnegotiation = 256

type telnetState int

const (
	stateData telnetState = iota
	stateIAC
	stateOption // after WILL/WONT/DO/DONT, awaiting the option byte
	stateSB
	stateSBData
	stateSBIAC
)

// TelnetConn wraps a net.Conn with telnet protocol awareness.
// Read strips IAC commands transparently; Write escapes 0xFF bytes.
type TelnetConn struct {
	conn    net.Conn
	reader  *bufio.Reader
	writeMu sync.Mutex

	// Parser state persists across Read calls.
	state    telnetState
	verb     byte
	sbOption byte
	sbData   []byte

	mu           sync.Mutex
	width        int
	height       int
	termType     string
	willTermType bool
	onWindow     func(width, height int)
}

// NewTelnetConn wraps an existing net.Conn with telnet protocol handling.
func NewTelnetConn(conn net.Conn) *TelnetConn {
	return &TelnetConn{
		conn:   conn,
		reader: bufio.NewReaderSize(conn, 256),
		width:  80,
		height: 25,
	}
}

// Negotiate sends the option requests and collects the client's replies
// for up to wait, twice: once for NAWS and WILL TERM_TYPE, then for the
// terminal type string if the client agreed to send one.
func (tc *TelnetConn) Negotiate(wait time.Duration) error {
	negotiations := []byte{
		IAC, WILL, OptEcho,
		IAC, WILL, OptSGA,
		IAC, DO, OptSGA,
		IAC, DONT, OptLinemode,
		IAC, DO, OptNAWS,
		IAC, DO, OptTermType,
	}
	if err := tc.writeRaw(negotiations); err != nil {
		return fmt.Errorf("failed to send telnet negotiations: %w", err)
	}
	tc.drain(wait)

	tc.mu.Lock()
	askType := tc.willTermType
	tc.mu.Unlock()
	if askType {
		if err := tc.writeRaw([]byte{IAC, SB, OptTermType, TermTypeSend, IAC, SE}); err != nil {
			return fmt.Errorf("failed to send TERM_TYPE request: %w", err)
		}
		tc.drain(wait)
	}
	return nil
}

// drain processes negotiation replies until the deadline passes. Data bytes
// typed during negotiation are dropped.
func (tc *TelnetConn) drain(wait time.Duration) {
	tc.conn.SetReadDeadline(time.Now().Add(wait))
	defer tc.conn.SetReadDeadline(time.Time{})

	buf := make([]byte, 64)
	for {
		n, err := tc.reader.Read(buf)
		for _, b := range buf[:n] {
			tc.consume(b)
		}
		if err != nil || tc.reader.Buffered() == 0 {
			return
		}
	}
}

// consume advances the IAC state machine by one byte and reports whether b
// is user data.
func (tc *TelnetConn) consume(b byte) (byte, bool) {
	switch tc.state {
	case stateData:
		if b == IAC {
			tc.state = stateIAC
			return 0, false
		}
		return b, true

	case stateIAC:
		switch b {
		case IAC:
			tc.state = stateData
			return 0xFF, true
		case WILL, WONT, DO, DONT:
			tc.verb = b
			tc.state = stateOption
		case SB:
			tc.state = stateSB
		default:
			tc.state = stateData
		}

	case stateOption:
		logging.Debug("Telnet negotiation: cmd=%d option=%d", tc.verb, b)
		if tc.verb == WILL && b == OptTermType {
			tc.mu.Lock()
			tc.willTermType = true
			tc.mu.Unlock()
		}
		tc.state = stateData

	case stateSB:
		tc.sbOption = b
		tc.sbData = tc.sbData[:0]
		tc.state = stateSBData

	case stateSBData:
		if b == IAC {
			tc.state = stateSBIAC
		} else if len(tc.sbData) < maxSubnegotiation {
			tc.sbData = append(tc.sbData, b)
		}

	case stateSBIAC:
		switch b {
		case SE:
			tc.handleSubnegotiation()
			tc.state = stateData
		case IAC:
			if len(tc.sbData) < maxSubnegotiation {
				tc.sbData = append(tc.sbData, IAC)
			}
			tc.state = stateSBData
		default:
			tc.state = stateData
		}
	}
	return 0, false
}

func (tc *TelnetConn) handleSubnegotiation() {
	switch tc.sbOption {
	case OptNAWS:
		if len(tc.sbData) < 4 {
			return
		}
		width := int(tc.sbData[0])<<8 | int(tc.sbData[1])
		height := int(tc.sbData[2])<<8 | int(tc.sbData[3])
		if width <= 0 || height <= 0 {
			log.Printf("WARN: Telnet NAWS: ignoring invalid dimensions %dx%d", width, height)
			return
		}
		logging.Debug("Telnet NAWS: %dx%d", width, height)

		tc.mu.Lock()
		tc.width, tc.height = width, height
		fn := tc.onWindow
		tc.mu.Unlock()
		if fn != nil {
			fn(width, height)
		}

	case OptTermType:
		if len(tc.sbData) >= 1 && tc.sbData[0] == TermTypeIs {
			t := strings.ToLower(strings.TrimSpace(string(tc.sbData[1:])))
			if t != "" {
				tc.mu.Lock()
				tc.termType = t
				tc.mu.Unlock()
				log.Printf("INFO: Telnet TERM_TYPE: %s", t)
			}
		}
	}
}

// OnWindow registers fn to be called on every NAWS update after negotiation.
func (tc *TelnetConn) OnWindow(fn func(width, height int)) {
	tc.mu.Lock()
	tc.onWindow = fn
	tc.mu.Unlock()
}

// TermType returns the terminal type the client reported, or "ansi" when
// none was negotiated.
func (tc *TelnetConn) TermType() string {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if tc.termType == "" {
		return "ansi"
	}
	return tc.termType
}

// WindowSize returns the last size reported through NAWS, 80x25 by default.
func (tc *TelnetConn) WindowSize() (width, height int) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.width, tc.height
}

// Read returns user data with telnet commands removed. It blocks until at
// least one data byte arrives or the connection fails.
func (tc *TelnetConn) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	written := 0
	for written == 0 {
		buf := make([]byte, len(p))
		n, err := tc.reader.Read(buf)
		for _, b := range buf[:n] {
			if d, ok := tc.consume(b); ok {
				p[written] = d
				written++
			}
		}
		if err != nil {
			if written > 0 {
				return written, nil
			}
			return 0, err
		}
	}
	return written, nil
}

// Write sends p, escaping 0xFF bytes as IAC IAC. It reports len(p) on
// success.
func (tc *TelnetConn) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	out := p
	if bytes.IndexByte(p, IAC) >= 0 {
		out = bytes.ReplaceAll(p, []byte{IAC}, []byte{IAC, IAC})
	}
	if err := tc.writeRaw(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (tc *TelnetConn) writeRaw(b []byte) error {
	tc.writeMu.Lock()
	defer tc.writeMu.Unlock()
	_, err := tc.conn.Write(b)
	return err
}

// Close closes the underlying connection.
func (tc *TelnetConn) Close() error {
	return tc.conn.Close()
}

// RemoteAddr returns the remote network address.
func (tc *TelnetConn) RemoteAddr() net.Addr {
	return tc.conn.RemoteAddr()
}
