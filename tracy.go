// Package tracy is an embeddable tracing runtime: a host process registers
// named tracepoints, submits opaque byte payloads to them, and the runtime
// delivers those payloads to at most one remote consumer over a length-framed
// TCP stream, discovered by the consumer via a periodic UDP multicast
// beacon. Submissions to unregistered or disabled tracepoints are dropped
// cheaply so instrumentation can stay in production code at negligible cost
// when nobody is listening.
//
// The architecture is a read-mostly registry, a bounded drop-on-full queue,
// a UDP announcer, and a TCP acceptor/session pair multiplexed by one
// background worker per Runtime (see internal/announce, internal/accept,
// internal/session, and internal/registry for the per-component notes).
package tracy

import (
	"context"
	"sync"
	"time"

	"github.com/tracy-project/tracy/internal/accept"
	"github.com/tracy-project/tracy/internal/announce"
	"github.com/tracy-project/tracy/internal/name"
	"github.com/tracy-project/tracy/internal/queue"
	"github.com/tracy-project/tracy/internal/registry"
	"github.com/tracy-project/tracy/internal/session"
)

// NameMax is the maximum length, in bytes, of a canonical tracepoint name.
const NameMax = name.Max

// SubmitMax is the maximum payload size accepted by Submit. The original C
// header's TRACY_MAX_SUBMIT_LEN macro is malformed (`#define NAME = 2048`
// instead of `#define NAME 2048`, which would not compile); 2048 is the
// evidently intended value and is what this constant restores.
const SubmitMax = 2048

// Default discovery multicast addresses, restored as exported constants
// since the original header only described them in comments.
const (
	DefaultMulticastAddrV4 = "225.0.0.1:64042"
	DefaultMulticastAddrV6 = "[ff02::4242:beef:1]:64042"
)

// Runtime is the opaque handle returned by Init. A nil *Runtime is always
// safe to call methods on: every method treats a nil receiver as a no-op
// (or, for Submit/Register/IsEnabled, returns the documented zero-value
// silent-failure result) rather than panicking.
type Runtime struct {
	cfg *config
	reg *registry.Registry
	q   *queue.Queue
	acc *accept.Acceptor
	ann *announce.Announcer

	ctx    context.Context
	cancel context.CancelFunc

	writeCtx    context.Context
	writeCancel context.CancelFunc

	done      chan struct{}
	finitOnce sync.Once
}

// Init validates cfg, built from opts, and starts the runtime: it binds the
// TCP acceptor, starts the announcer unless announcements are disabled, and
// launches the background worker goroutine. It blocks until sockets are
// bound or startup fails. On any startup failure, partial startup is
// unwound and an error is returned -- there is no partially-started
// Runtime.
func Init(ctx context.Context, opts ...Option) (*Runtime, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	acc, err := accept.Listen("")
	if err != nil {
		return nil, err
	}

	var ann *announce.Announcer
	if !cfg.announceDisabled() {
		ann, err = announce.New(announce.Config{
			Hostname:      cfg.hostname,
			ProcessName:   cfg.processName,
			Port:          acc.Port(),
			Interval:      cfg.announceInterval,
			Iface:         cfg.announceIface,
			MulticastAddr: cfg.announceMcast,
		}, cfg.logger)
		if err != nil {
			_ = acc.Close()
			return nil, err
		}
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	writeCtx, writeCancel := context.WithCancel(context.Background())

	rt := &Runtime{
		cfg:         cfg,
		reg:         registry.New(),
		q:           queue.New(cfg.queueMaxRecords, cfg.queueMaxBytes),
		acc:         acc,
		ann:         ann,
		ctx:         workerCtx,
		cancel:      cancel,
		writeCtx:    writeCtx,
		writeCancel: writeCancel,
		done:        make(chan struct{}),
	}

	go rt.run()

	return rt, nil
}

// run is the runtime's single background worker: it multiplexes the
// announcer's ticks and the acceptor's readiness. One session runs at a
// time; the acceptor resumes accepting as soon as the previous session
// ends.
func (rt *Runtime) run() {
	defer close(rt.done)

	var wg sync.WaitGroup
	if rt.ann != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rt.ann.Run(rt.ctx)
		}()
	}

	for {
		conn, err := rt.acc.Accept()
		if err != nil {
			break
		}
		session.Run(rt.ctx, rt.writeCtx, conn, rt.reg, rt.q, rt.cfg.flushInterval, rt.cfg.logger)

		select {
		case <-rt.ctx.Done():
			wg.Wait()
			return
		default:
		}
	}

	wg.Wait()
}

// Finit signals shutdown, waits for the worker to drain and join within the
// bounded grace period, and releases all owned resources. It is safe to
// call on a nil Runtime (a no-op) and is idempotent.
func (rt *Runtime) Finit() {
	if rt == nil {
		return
	}
	rt.finitOnce.Do(func() {
		rt.cancel()
		time.AfterFunc(rt.cfg.gracePeriod, rt.writeCancel)
		_ = rt.acc.Close()
		<-rt.done
		rt.writeCancel()
		rt.q.Close()
		if rt.ann != nil {
			_ = rt.ann.Close()
		}
	})
}

// Register canonicalizes name and inserts it into the registry with its
// enable bit clear, unless already present, in which case it is a no-op
// success. It reports false when the handle is nil, name is empty, or name
// fails canonicalization -- matching the C API's "negative on failure"
// contract via a boolean instead of a signed return code.
func (rt *Runtime) Register(rawName string) bool {
	if rt == nil {
		return false
	}
	canonical, err := name.Canonicalize(rawName)
	if err != nil {
		return false
	}
	rt.reg.Register(canonical)
	return true
}

// IsEnabled reports whether name is registered and its enable bit is set.
// A nil handle, an empty name, or a name that fails canonicalization all
// report false -- never an error.
func (rt *Runtime) IsEnabled(rawName string) bool {
	if rt == nil {
		return false
	}
	canonical, err := name.Canonicalize(rawName)
	if err != nil {
		return false
	}
	return rt.reg.IsEnabled(canonical)
}

// Submit takes the shortest possible path and drops the submission silently
// whenever any gate fails, checked in order: nil handle, empty name, empty
// data, oversized data, invalid name, unregistered tracepoint, disabled
// tracepoint, or a full (or torn-down) queue. Only once every gate passes
// does it capture the timestamp, copy the payload, and enqueue it.
func (rt *Runtime) Submit(rawName string, data []byte) {
	if rt == nil {
		return
	}
	if rawName == "" {
		return
	}
	if len(data) == 0 {
		return
	}
	if len(data) > SubmitMax {
		return
	}
	canonical, err := name.Canonicalize(rawName)
	if err != nil {
		return
	}
	if !rt.reg.IsEnabled(canonical) {
		return
	}

	payload := make([]byte, len(data))
	copy(payload, data)

	rt.q.Offer(queue.Record{
		Name:      canonical,
		Timestamp: time.Now().UnixNano(),
		Payload:   payload,
	})
}

// DroppedCount returns the number of submissions refused because the
// submission queue was full. It is a monotonically increasing counter for
// the lifetime of the Runtime.
func (rt *Runtime) DroppedCount() int64 {
	if rt == nil {
		return 0
	}
	return rt.q.DroppedCount()
}

// Port returns the TCP port the acceptor is listening on -- the value the
// announcer advertises, and what a caller running in no-multicast mode must
// communicate to consumers out of band.
func (rt *Runtime) Port() int {
	if rt == nil {
		return 0
	}
	return rt.acc.Port()
}
