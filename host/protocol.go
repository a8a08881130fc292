// Package host exposes the pipeline to the browser extension shell over
// Chrome's native-messaging transport: each frame is a 32-bit little-endian
// byte length followed by that many bytes of JSON, on stdin/stdout.
package host

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Frame size limits. Chrome refuses to deliver inbound frames past 64 MiB;
// messages from the host to the browser are capped at 1 MiB by the browser,
// so anything larger is a bug on our side.
const (
	maxInboundFrame  = 64 << 20
	maxOutboundFrame = 1 << 20
)

// ReadMessage reads one length-prefixed frame. io.EOF is returned unchanged
// at a clean end of stream so serve loops can terminate on it.
func ReadMessage(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read frame header: %w", err)
	}
	if length > maxInboundFrame {
		return nil, fmt.Errorf("frame of %d bytes exceeds the %d byte limit", length, maxInboundFrame)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("failed to read frame payload: %w", err)
	}
	return payload, nil
}

// WriteMessage marshals v and writes it as one length-prefixed frame.
func WriteMessage(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	if len(payload) > maxOutboundFrame {
		return fmt.Errorf("message of %d bytes exceeds the %d byte browser limit", len(payload), maxOutboundFrame)
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(payload))); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write frame payload: %w", err)
	}
	return nil
}
