package packet

import (
	"bytes"
	"io"
)

// Packet is one MQTT v3.1.1 control packet.
//
// Reference: MQTT v3.1.1 (OASIS Standard, 29 October 2014),
// section 2.1 Structure of an MQTT Control Packet. Every control packet
// is a fixed header, an optional variable header and an optional payload.
type Packet interface {
	// Kind returns the control packet type from bits 7-4 of byte 1.
	Kind() byte

	// Unpack parses the variable header and payload from buf. The buffer
	// holds exactly RemainingLength bytes; the fixed header has already
	// been consumed.
	Unpack(*bytes.Buffer) error

	// Pack serializes the whole packet, fixed header included, to w.
	Pack(io.Writer) error
}

// Split splits one complete frame off the front of b. It returns the
// frame and the remaining tail, consuming nothing on failure: if b holds
// less than a full fixed header plus Remaining Length bytes the error is
// ErrIncompleteFrame and rest is b unchanged. A Remaining Length that
// does not terminate within four bytes yields ErrPacketTooLarge.
func Split(b []byte) (frame, rest []byte, err error) {
	if len(b) < 2 {
		return nil, b, ErrIncompleteFrame
	}
	length, n, err := peekLength(b[1:])
	if err != nil {
		return nil, b, err
	}
	total := 1 + n + int(length)
	if len(b) < total {
		return nil, b, ErrIncompleteFrame
	}
	return b[:total], b[total:], nil
}

// Unpack parses one MQTT control packet from r.
//
// The fixed header determines the concrete packet type; the body is then
// read in full and handed to the type's own Unpack. Packet types the
// broker does not implement come back as *UNKNOWN with a nil error; the
// forbidden type 0x0 comes back as *RESERVED with ErrMalformedPacket.
func Unpack(r io.Reader) (Packet, error) {
	pkt, fixed := Packet(nil), &FixedHeader{}
	if err := fixed.Unpack(r); err != nil {
		return &RESERVED{FixedHeader: fixed}, err
	}

	buf := GetBuffer()
	defer PutBuffer(buf)

	lr := io.LimitReader(r, int64(fixed.RemainingLength))
	if n, err := buf.ReadFrom(lr); err != nil {
		return pkt, err
	} else if n != int64(fixed.RemainingLength) {
		return &RESERVED{FixedHeader: fixed}, ErrTruncatedPacket
	}

	switch fixed.Kind {
	case 0x1:
		pkt = &CONNECT{FixedHeader: fixed}
	case 0x2:
		pkt = &CONNACK{FixedHeader: fixed}
	case 0x3:
		pkt = &PUBLISH{FixedHeader: fixed}
	case 0x4:
		pkt = &PUBACK{FixedHeader: fixed}
	case 0x8:
		pkt = &SUBSCRIBE{FixedHeader: fixed}
	case 0x9:
		pkt = &SUBACK{FixedHeader: fixed}
	case 0xC:
		pkt = &PINGREQ{FixedHeader: fixed}
	case 0xD:
		pkt = &PINGRESP{FixedHeader: fixed}
	case 0xE:
		pkt = &DISCONNECT{FixedHeader: fixed}
	default:
		pkt = &UNKNOWN{FixedHeader: fixed}
	}
	return pkt, pkt.Unpack(buf)
}

// Decode parses one complete frame, as returned by Split.
func Decode(frame []byte) (Packet, error) {
	return Unpack(bytes.NewReader(frame))
}
