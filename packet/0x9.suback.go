package packet

import (
	"bytes"
	"io"
)

// SUBACK acknowledges a SUBSCRIBE. MQTT v3.1.1: section 3.9 SUBACK -
// Subscribe acknowledgement.
//
// Variable header: the packet identifier of the SUBSCRIBE. Payload: one
// return code per topic filter, in the order the filters appeared
// [MQTT-3.9.3-1]. This broker grants QoS 0 (0x00) for every filter and
// never answers with the failure code 0x80.
type SUBACK struct {
	*FixedHeader

	PacketID uint16 `json:"PacketID,omitempty"`

	// ReasonCode one granted-QoS entry per requested topic filter.
	ReasonCode []ReasonCode `json:"ReasonCode,omitempty"`
}

func (pkt *SUBACK) Kind() byte {
	return 0x9
}

func (pkt *SUBACK) Pack(w io.Writer) error {
	if len(pkt.ReasonCode) == 0 {
		return ErrMalformedReasonCode
	}
	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.Write(i2b(pkt.PacketID))
	for _, reason := range pkt.ReasonCode {
		buf.WriteByte(reason.Code)
	}

	pkt.FixedHeader.RemainingLength = uint32(buf.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (pkt *SUBACK) Unpack(buf *bytes.Buffer) error {
	var err error
	if pkt.PacketID, err = readU16(buf); err != nil {
		return err
	}
	for buf.Len() != 0 {
		reason := ReasonCode{Code: buf.Next(1)[0]}
		if reason.Code > 0x02 && reason.Code != 0x80 {
			return ErrMalformedReasonCode
		}
		pkt.ReasonCode = append(pkt.ReasonCode, reason)
	}
	if len(pkt.ReasonCode) == 0 {
		return ErrMalformedReasonCode
	}
	return nil
}
