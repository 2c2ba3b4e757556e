// Package accept implements the stream acceptor: it binds a TCP listening
// socket on an OS-assigned port (the port the announcer advertises) and
// hands accepted connections to the caller one at a time. At-most-one
// session is enforced by the caller (internal/session / the runtime
// supervisor), not here -- the acceptor's only job is to keep producing
// net.Conn values; what happens to the previous one is the supervisor's
// concern.
package accept

import (
	"context"
	"net"
	"syscall"

	"github.com/tracy-project/tracy/internal/tracyerr"
)

// Acceptor wraps a net.Listener bound with SO_REUSEADDR/SO_REUSEPORT.
type Acceptor struct {
	ln net.Listener
}

// Listen binds a TCP listener on iface:0 (an OS-assigned port) if iface is
// non-empty, or ":0" on all interfaces otherwise.
func Listen(iface string) (*Acceptor, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var controlErr error
			err := c.Control(func(fd uintptr) {
				controlErr = setSocketOptions(fd)
			})
			if err != nil {
				return err
			}
			return controlErr
		},
	}

	addr := net.JoinHostPort(iface, "0")
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, &tracyerr.NetworkError{Op: "listen", Addr: addr, Err: err}
	}
	return &Acceptor{ln: ln}, nil
}

// Addr returns the bound listening address, including the OS-assigned
// port the announcer should advertise.
func (a *Acceptor) Addr() net.Addr { return a.ln.Addr() }

// Port returns the bound TCP port.
func (a *Acceptor) Port() int {
	if tcpAddr, ok := a.ln.Addr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return 0
}

// Accept blocks until a new connection arrives or the listener is closed.
func (a *Acceptor) Accept() (net.Conn, error) {
	return a.ln.Accept()
}

// Close stops the acceptor from accepting further connections.
func (a *Acceptor) Close() error {
	return a.ln.Close()
}
