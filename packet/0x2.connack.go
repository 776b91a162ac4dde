package packet

import (
	"bytes"
	"fmt"
	"io"
)

// CONNACK acknowledges a CONNECT. MQTT v3.1.1: section 3.2 CONNACK -
// Acknowledge connection request.
//
// Variable header: the session present flag and the connect return code.
// No payload. This broker always answers 0x00 (connection accepted) with
// session present clear, so the packet on the wire is 20 02 00 00; errors
// are only ever signalled to clients by closing the socket.
type CONNACK struct {
	*FixedHeader

	// SessionPresent bit 0 of the acknowledge flags byte [MQTT-3.2.2-1].
	SessionPresent uint8

	// ReturnCode connect return code, section 3.2.2.3. 0x00 is accepted.
	ReturnCode ReasonCode `json:"ReturnCode,omitempty"`
}

func (pkt *CONNACK) Kind() byte {
	return 0x2
}

func (pkt *CONNACK) String() string {
	return fmt.Sprintf("[0x2]ReturnCode=%d", pkt.ReturnCode.Code)
}

func (pkt *CONNACK) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.WriteByte(pkt.SessionPresent)
	buf.WriteByte(pkt.ReturnCode.Code)

	pkt.FixedHeader.RemainingLength = uint32(buf.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (pkt *CONNACK) Unpack(buf *bytes.Buffer) error {
	if buf.Len() < 2 {
		return ErrTruncatedPacket
	}
	pkt.SessionPresent = buf.Next(1)[0]
	pkt.ReturnCode = ReasonCode{Code: buf.Next(1)[0]}
	return nil
}
