// Package session implements the lifetime of one accepted consumer
// connection: an inbound command reader and an outbound record writer
// cooperating over the same net.Conn, as two goroutines torn down together
// when either side ends.
package session

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/tracy-project/tracy/internal/queue"
	"github.com/tracy-project/tracy/internal/registry"
	"github.com/tracy-project/tracy/internal/rtlog"
	"github.com/tracy-project/tracy/internal/wire"
)

// maxDrainBatch bounds how many records a single writer iteration pulls
// from the queue before writing, so one very deep queue doesn't monopolize
// the connection and starve a timely return to draining again.
const maxDrainBatch = 256

// Run drives one consumer session to completion. readCtx bounds the
// session's lifetime for control purposes (cancelled immediately when the
// runtime begins shutdown); writeCtx bounds how long the outbound writer
// keeps draining the queue after shutdown begins (a bounded grace period)
// -- it is intentionally a context independent of readCtx so the writer can
// keep flushing briefly after the reader side has been told to stop.
//
// Run blocks until the session ends (I/O error, malformed frame, the reader
// stopping, or writeCtx expiring) and always clears the registry's enable
// bits and discards whatever remains in the queue before returning, so the
// next consumer session starts from a clean, fully-disabled state. The
// reader checks readCtx only between frames: a read already blocked on the
// connection ends when the writer stops and closes the connection.
func Run(readCtx, writeCtx context.Context, conn net.Conn, reg *registry.Registry, q *queue.Queue, flushInterval time.Duration, logger rtlog.Logger) {
	if logger == nil {
		logger = rtlog.Nop
	}

	// The reader ending also stops the writer, which would otherwise only
	// notice the closed connection on its next write.
	writeCtx, stopWriter := context.WithCancel(writeCtx)
	defer stopWriter()

	var closeOnce sync.Once
	closeConn := func() { closeOnce.Do(func() { _ = conn.Close() }) }

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer closeConn()
		defer stopWriter()
		if err := readLoop(readCtx, conn, reg); err != nil && !isExpectedClose(err) {
			logger.Printf("session: command read failed: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		defer closeConn()
		if err := writeLoop(writeCtx, conn, q, flushInterval); err != nil && !isExpectedClose(err) {
			logger.Printf("session: record write failed: %v", err)
		}
	}()

	wg.Wait()

	reg.ResetEnabled()
	q.Discard()
}

func isExpectedClose(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled)
}

// readLoop reads length-delimited command frames and applies enable/disable
// to the registry. A malformed frame terminates the session; an unknown
// frame type is treated the same as malformed, since only enable and
// disable are recognized on this direction of the stream.
func readLoop(ctx context.Context, conn net.Conn, reg *registry.Registry) error {
	r := bufio.NewReader(conn)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frameType, payload, err := wire.ReadFrame(r)
		if err != nil {
			return err
		}

		switch frameType {
		case wire.FrameEnable:
			name, err := wire.DecodeCommand(payload)
			if err != nil {
				// An un-canonicalizable name in an enable/disable command is
				// simply ignored -- it is not a malformed frame, just a
				// no-op command.
				continue
			}
			reg.SetEnabled(name, true)
		case wire.FrameDisable:
			name, err := wire.DecodeCommand(payload)
			if err != nil {
				continue
			}
			reg.SetEnabled(name, false)
		default:
			return wire.ErrMalformed
		}
	}
}

// writeLoop drains the submission queue on the flush cadence and writes
// framed records to the consumer. A short write or any write error
// terminates the session.
func writeLoop(ctx context.Context, conn net.Conn, q *queue.Queue, flushInterval time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		drainCtx, cancel := context.WithTimeout(ctx, flushInterval)
		batch := q.DrainBatch(drainCtx, maxDrainBatch)
		cancel()

		if len(batch) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				continue
			}
		}

		for _, rec := range batch {
			payload := wire.EncodeRecord(rec.Name, rec.Timestamp, rec.Payload)
			if err := wire.WriteFrame(conn, wire.FrameRecord, payload); err != nil {
				return err
			}
		}
	}
}
