// Package announce implements the discovery beacon: a background ticker
// that sends a UDP multicast datagram advertising this runtime's hostname,
// process name, and TCP listen port. It wraps the outbound net.PacketConn in
// an ipv4.PacketConn to reach multicast-specific socket behavior (TTL
// control) that the stdlib net package does not expose directly.
package announce

import (
	"context"
	"net"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/tracy-project/tracy/internal/rtlog"
	"github.com/tracy-project/tracy/internal/tracyerr"
	"github.com/tracy-project/tracy/internal/wire"
)

// Config carries the three independent knobs that each individually disable
// the announcer when absent/zero: Interval, Iface, and MulticastAddr.
// Disabled is true iff Interval == 0 or Iface == "" or MulticastAddr == "".
type Config struct {
	Hostname      string
	ProcessName   string
	Port          int
	Interval      time.Duration
	Iface         string // local interface address to bind/send from
	MulticastAddr string // destination, e.g. "225.0.0.1:64042"
}

// Disabled reports whether, per Config, the announcer should not start at
// all. The acceptor still runs in this case; consumers must be told the
// port out of band.
func (c Config) Disabled() bool {
	return c.Interval <= 0 || c.Iface == "" || c.MulticastAddr == ""
}

// Announcer owns the UDP socket used to emit beacons and the ticker that
// drives its cadence.
type Announcer struct {
	cfg    Config
	log    rtlog.Logger
	conn   *net.UDPConn
	dest   *net.UDPAddr
	ipconn *ipv4.PacketConn
}

// New binds the announcer's outbound socket to cfg.Iface and resolves the
// multicast destination. Callers must check cfg.Disabled() first; New does
// not start the ticker, that is Run's job.
func New(cfg Config, logger rtlog.Logger) (*Announcer, error) {
	if logger == nil {
		logger = rtlog.Nop
	}

	localAddr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(cfg.Iface, "0"))
	if err != nil {
		return nil, &tracyerr.NetworkError{Op: "resolve announce interface", Addr: cfg.Iface, Err: err}
	}

	dest, err := net.ResolveUDPAddr("udp4", cfg.MulticastAddr)
	if err != nil {
		return nil, &tracyerr.NetworkError{Op: "resolve multicast address", Addr: cfg.MulticastAddr, Err: err}
	}

	conn, err := net.ListenUDP("udp4", localAddr)
	if err != nil {
		return nil, &tracyerr.NetworkError{Op: "bind announce socket", Addr: localAddr.String(), Err: err}
	}

	ipconn := ipv4.NewPacketConn(conn)
	// Best-effort: a low multicast TTL keeps beacons on the local segment.
	// Failure here is non-fatal; beacons still go out, just with whatever
	// TTL the platform default gives the socket.
	_ = ipconn.SetMulticastTTL(1)

	return &Announcer{cfg: cfg, log: logger, conn: conn, dest: dest, ipconn: ipconn}, nil
}

// Close releases the announce socket.
func (a *Announcer) Close() error {
	if a == nil || a.conn == nil {
		return nil
	}
	return a.conn.Close()
}

// Run sends one beacon immediately and then one every cfg.Interval until
// ctx is done. A failed send is logged and never disturbs the next tick --
// a failed beacon never disturbs any other component.
func (a *Announcer) Run(ctx context.Context) {
	a.send()

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.send()
		}
	}
}

func (a *Announcer) send() {
	payload := wire.EncodeBeacon(a.cfg.Hostname, a.cfg.ProcessName, a.cfg.Port)
	if _, err := a.conn.WriteTo(payload, a.dest); err != nil {
		a.log.Printf("announce: beacon send failed: %v", err)
	}
}
