package packet

import (
	"bytes"
	"io"
)

// DISCONNECT is the final packet a client sends before closing the
// connection. MQTT v3.1.1: section 3.14 DISCONNECT - Disconnect
// notification. No variable header, no payload; the broker marks the
// session for teardown when one arrives.
type DISCONNECT struct {
	*FixedHeader
}

func (pkt *DISCONNECT) Kind() byte {
	return 0xE
}

func (pkt *DISCONNECT) Pack(w io.Writer) error {
	pkt.FixedHeader.RemainingLength = 0
	return pkt.FixedHeader.Pack(w)
}

func (pkt *DISCONNECT) Unpack(_ *bytes.Buffer) error {
	return nil
}
