package packet

import (
	"bytes"
	"io"
)

// PINGRESP answers a PINGREQ. The server must send one in response to
// every PINGREQ [MQTT-3.12.4-1]. No variable header, no payload.
type PINGRESP struct {
	*FixedHeader
}

func (pkt *PINGRESP) Kind() byte {
	return 0xD
}

func (pkt *PINGRESP) Pack(w io.Writer) error {
	pkt.FixedHeader.RemainingLength = 0
	return pkt.FixedHeader.Pack(w)
}

func (pkt *PINGRESP) Unpack(_ *bytes.Buffer) error {
	return nil
}
