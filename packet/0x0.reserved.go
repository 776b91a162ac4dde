package packet

import (
	"bytes"
	"io"
)

// RESERVED stands in for the forbidden packet type 0x0, and for any packet
// whose fixed header fails validation or whose body is cut short. Decoding
// one is always a protocol error; the struct exists so the caller still
// gets a Packet value carrying the offending fixed header.
type RESERVED struct {
	*FixedHeader
}

func (pkt *RESERVED) Kind() byte {
	return pkt.FixedHeader.Kind
}

func (pkt *RESERVED) Pack(io.Writer) error {
	return nil
}

func (pkt *RESERVED) Unpack(*bytes.Buffer) error {
	return nil
}

// UNKNOWN carries a packet of a type this broker does not implement
// (PUBREC, PUBREL, PUBCOMP, UNSUBSCRIBE, UNSUBACK, AUTH). The body is
// consumed and dropped; the session stays up and no response is sent.
type UNKNOWN struct {
	*FixedHeader
}

func (pkt *UNKNOWN) Kind() byte {
	return pkt.FixedHeader.Kind
}

func (pkt *UNKNOWN) Pack(io.Writer) error {
	return nil
}

func (pkt *UNKNOWN) Unpack(buf *bytes.Buffer) error {
	buf.Next(buf.Len())
	return nil
}
