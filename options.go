package tracy

import (
	"time"

	"github.com/tracy-project/tracy/internal/rtlog"
)

// Option configures a Runtime at Init time, following the functional
// options pattern.
type Option func(*config) error

// WithHostname sets the hostname advertised in discovery beacons. Mandatory:
// Init fails if it is never set.
func WithHostname(hostname string) Option {
	return func(c *config) error {
		c.hostname = hostname
		return nil
	}
}

// WithProcessName sets the process name advertised in discovery beacons.
// Mandatory: Init fails if it is never set.
func WithProcessName(processName string) Option {
	return func(c *config) error {
		c.processName = processName
		return nil
	}
}

// WithFlushInterval sets the outbound writer's drain cadence. Defaults to
// one second.
func WithFlushInterval(d time.Duration) Option {
	return func(c *config) error {
		c.flushInterval = d
		return nil
	}
}

// WithGracePeriod overrides the bounded grace period Finit gives the
// outbound writer to drain the queue before the session is forced closed.
// Defaults to the flush interval.
func WithGracePeriod(d time.Duration) Option {
	return func(c *config) error {
		c.gracePeriod = d
		return nil
	}
}

// WithAnnounceInterval sets the beacon cadence. Leaving it at zero (the
// default) disables the announcer.
func WithAnnounceInterval(d time.Duration) Option {
	return func(c *config) error {
		c.announceInterval = d
		return nil
	}
}

// WithAnnounceInterface sets the local interface address the beacon socket
// binds to and sends from.
func WithAnnounceInterface(iface string) Option {
	return func(c *config) error {
		c.announceIface = iface
		return nil
	}
}

// WithAnnounceMulticastAddr sets the beacon's destination multicast address,
// e.g. DefaultMulticastAddrV4.
func WithAnnounceMulticastAddr(addr string) Option {
	return func(c *config) error {
		c.announceMcast = addr
		return nil
	}
}

// WithFlags sets the reserved flags field. Any non-zero value fails Init;
// this option exists only so the reservation is visible in the public API.
func WithFlags(flags uint32) Option {
	return func(c *config) error {
		c.flags = flags
		return nil
	}
}

// WithQueueCapacity overrides the submission queue's bounds. Non-positive
// values fall back to the package defaults (see internal/queue).
func WithQueueCapacity(maxRecords, maxBytes int) Option {
	return func(c *config) error {
		c.queueMaxRecords = maxRecords
		c.queueMaxBytes = maxBytes
		return nil
	}
}

// WithLogger sets the sink for absorbed-error diagnostics (announce send
// failures, session I/O failures). Defaults to rtlog.Default(); pass
// rtlog.Nop for silence.
func WithLogger(logger rtlog.Logger) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}
