package tracy

import (
	"time"

	"github.com/tracy-project/tracy/internal/queue"
	"github.com/tracy-project/tracy/internal/rtlog"
	"github.com/tracy-project/tracy/internal/tracyerr"
)

// config is the snapshot captured at Init time. It is unexported: the only
// way to build one is through Init plus Options.
type config struct {
	hostname    string
	processName string

	flushInterval time.Duration
	gracePeriod   time.Duration

	announceInterval time.Duration
	announceIface    string
	announceMcast    string

	flags uint32

	queueMaxRecords int
	queueMaxBytes   int

	logger rtlog.Logger
}

// defaultFlushInterval is used when WithFlushInterval is never called.
// Announcements, by contrast, default to disabled (zero interval, no
// interface, no address) since all three are mandatory together.
const defaultFlushInterval = 1 * time.Second

func defaultConfig() *config {
	return &config{
		flushInterval:   defaultFlushInterval,
		queueMaxRecords: queue.DefaultMaxRecords,
		queueMaxBytes:   queue.DefaultMaxBytes,
	}
}

// announceRequested reports whether the caller supplied enough of the
// announce triple to indicate intent to announce, used to distinguish "never
// asked for it" from "asked for it but left a mandatory field unset."
func (c *config) announceRequested() bool {
	return c.announceIface != "" || c.announceMcast != ""
}

// announceDisabled reports the announcer's disabled-mode test: any of the
// three knobs absent/zero disables the announcer.
func (c *config) announceDisabled() bool {
	return c.announceInterval <= 0 || c.announceIface == "" || c.announceMcast == ""
}

func (c *config) validate() error {
	if c.hostname == "" {
		return &tracyerr.ConfigError{Field: "hostname", Reason: "must not be empty"}
	}
	if c.processName == "" {
		return &tracyerr.ConfigError{Field: "process_name", Reason: "must not be empty"}
	}
	if c.flags != 0 {
		return &tracyerr.ConfigError{Field: "flags", Reason: "reserved, must be zero"}
	}
	if c.flushInterval <= 0 {
		return &tracyerr.ConfigError{Field: "buffer_flush_interval_ms", Reason: "must be positive"}
	}
	if c.announceRequested() && c.announceDisabled() {
		return &tracyerr.ConfigError{
			Field:  "announce_interval_ms/announce_iface/announce_mcast_addr",
			Reason: "all three must be set together to enable announcements",
		}
	}
	if c.gracePeriod <= 0 {
		c.gracePeriod = c.flushInterval
	}
	if c.logger == nil {
		c.logger = rtlog.Default()
	}
	return nil
}
