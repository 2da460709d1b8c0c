// Package wire implements the ZTeraDB framing contract: a 2-byte
// big-endian length prefix followed by that many bytes of JSON-encoded
// UTF-8 payload, read with the same io.ReadFull exact-read technique a
// Postgres wire handshake uses for its own length-prefixed messages.
package wire

import (
	"encoding/binary"
	"io"

	"github.com/zteradb/zteradb-go/zterr"
)

// MaxFrameSize is the largest payload a single frame can carry: the
// 2-byte length prefix is an unsigned 16-bit integer.
const MaxFrameSize = 1<<16 - 1

const headerSize = 2

// ReadFrame reads one length-prefixed frame from r: two bytes of
// big-endian length, then exactly that many payload bytes. A short read
// at either step is treated as a fatal connection error, mirroring the
// original's "close on any exception" behavior in ZTeraDBTCPProtocol.read.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, zterr.Wrap(zterr.KindConnection, err, "failed to read frame header")
	}
	length := binary.BigEndian.Uint16(header[:])

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, zterr.Wrap(zterr.KindConnection, err, "failed to read frame payload")
		}
	}
	return payload, nil
}

// WriteFrame encodes payload with its 2-byte big-endian length prefix and
// writes header and payload as a single Write call, so the frame can never
// be interleaved with another writer's bytes on a shared connection.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return zterr.New(zterr.KindConnection, "frame payload of %d bytes exceeds max frame size %d", len(payload), MaxFrameSize)
	}
	buf := make([]byte, headerSize+len(payload))
	binary.BigEndian.PutUint16(buf[:headerSize], uint16(len(payload)))
	copy(buf[headerSize:], payload)

	if _, err := w.Write(buf); err != nil {
		return zterr.Wrap(zterr.KindConnection, err, "failed to write frame")
	}
	return nil
}
