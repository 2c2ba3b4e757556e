// Package wire implements the length-prefixed framing shared by both
// directions of the TCP data channel, plus the beacon's self-describing UDP
// text record: a fixed-width big-endian length header followed by a type
// byte and payload, covering tracy's two frame kinds -- outbound submission
// records and inbound enable/disable commands.
package wire

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tracy-project/tracy/internal/name"
)

// Frame type bytes. Each direction of the stream only ever emits one of
// these: the runtime writes FrameRecord, the consumer writes FrameEnable /
// FrameDisable.
const (
	FrameRecord  byte = 0x01
	FrameEnable  byte = 0x02
	FrameDisable byte = 0x03
)

// HeaderSize is the length of the frame header: 4 bytes big-endian payload
// length, 1 byte frame type.
const HeaderSize = 4 + 1

// MaxFramePayload bounds how much a single inbound frame may claim to carry,
// independent of SubmitMax -- command frames are tiny, but a corrupt or
// hostile peer should not be able to make the session reader allocate an
// unbounded buffer from a 4-byte length field.
const MaxFramePayload = 1 << 20

// ErrMalformed is returned by ReadFrame when a frame's declared length
// exceeds MaxFramePayload, and by DecodeRecord when a record frame is too
// short to decode. Per the session contract, a malformed frame terminates
// the session.
var ErrMalformed = errors.New("tracy: malformed frame")

// WriteFrame writes a single length-prefixed frame to w.
func WriteFrame(w io.Writer, frameType byte, payload []byte) error {
	var header [HeaderSize]byte
	binary.BigEndian.PutUint32(header[:4], uint32(len(payload)))
	header[4] = frameType
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads a single length-prefixed frame from r. It returns
// ErrMalformed (wrapped with context) if the declared length exceeds
// MaxFramePayload.
func ReadFrame(r *bufio.Reader) (frameType byte, payload []byte, err error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}

	length := binary.BigEndian.Uint32(header[:4])
	if length > MaxFramePayload {
		return 0, nil, fmt.Errorf("%w: payload length %d exceeds %d", ErrMalformed, length, MaxFramePayload)
	}
	frameType = header[4]

	if length == 0 {
		return frameType, nil, nil
	}

	payload = make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return frameType, payload, nil
}

// EncodeRecord serializes a submission record for FrameRecord: a
// length-prefixed canonical name, an 8-byte big-endian nanosecond
// timestamp, and the raw payload.
func EncodeRecord(canonicalName string, timestampNS int64, payload []byte) []byte {
	buf := make([]byte, 1+len(canonicalName)+8+len(payload))
	buf[0] = byte(len(canonicalName))
	off := 1
	off += copy(buf[off:], canonicalName)
	binary.BigEndian.PutUint64(buf[off:], uint64(timestampNS))
	off += 8
	copy(buf[off:], payload)
	return buf
}

// DecodeRecord is the inverse of EncodeRecord.
func DecodeRecord(payload []byte) (canonicalName string, timestampNS int64, data []byte, err error) {
	if len(payload) < 1 {
		return "", 0, nil, fmt.Errorf("%w: empty record frame", ErrMalformed)
	}
	nameLen := int(payload[0])
	if len(payload) < 1+nameLen+8 {
		return "", 0, nil, fmt.Errorf("%w: record frame too short", ErrMalformed)
	}
	canonicalName = string(payload[1 : 1+nameLen])
	ts := binary.BigEndian.Uint64(payload[1+nameLen : 1+nameLen+8])
	data = payload[1+nameLen+8:]
	return canonicalName, int64(ts), data, nil
}

// EncodeCommand serializes an enable/disable command's tracepoint name
// argument. Both commands carry nothing but the raw (not yet canonicalized)
// name; canonicalization happens on the receiving side, so the same rules
// apply to inbound frames as to register/submit.
func EncodeCommand(rawName string) []byte {
	return []byte(rawName)
}

// DecodeCommand canonicalizes a command frame's name payload.
func DecodeCommand(payload []byte) (string, error) {
	return name.Canonicalize(string(payload))
}
