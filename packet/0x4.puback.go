package packet

import (
	"bytes"
	"io"
)

// PUBACK acknowledges a QoS 1 PUBLISH. MQTT v3.1.1: section 3.4 PUBACK -
// Publish acknowledgement.
//
// Variable header: the packet identifier of the PUBLISH being
// acknowledged. No payload. The broker sends one for every inbound QoS 1
// or QoS 2 PUBLISH (the latter is non-conformant but tolerated, see the
// client contract) and never retransmits, so the acknowledgement is pure
// best effort.
type PUBACK struct {
	*FixedHeader

	// PacketID echoes the identifier from the PUBLISH [MQTT-3.4.2].
	PacketID uint16
}

func (pkt *PUBACK) Kind() byte {
	return 0x4
}

func (pkt *PUBACK) Pack(w io.Writer) error {
	pkt.FixedHeader.RemainingLength = 2
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(i2b(pkt.PacketID))
	return err
}

func (pkt *PUBACK) Unpack(buf *bytes.Buffer) error {
	var err error
	pkt.PacketID, err = readU16(buf)
	return err
}
