package packet

import (
	"bytes"
	"io"
)

// PINGREQ is the client keep alive probe. MQTT v3.1.1: section 3.12
// PINGREQ - PING request. No variable header, no payload.
type PINGREQ struct {
	*FixedHeader
}

func (pkt *PINGREQ) Kind() byte {
	return 0xC
}

func (pkt *PINGREQ) Pack(w io.Writer) error {
	pkt.FixedHeader.RemainingLength = 0
	return pkt.FixedHeader.Pack(w)
}

func (pkt *PINGREQ) Unpack(_ *bytes.Buffer) error {
	return nil
}
