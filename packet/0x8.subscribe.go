package packet

import (
	"bytes"
	"fmt"
	"io"
)

// SUBSCRIBE registers interest in a list of topics. MQTT v3.1.1: section
// 3.8 SUBSCRIBE - Subscribe to topics.
//
// Fixed header flags must be DUP=0, QoS=1, RETAIN=0 [MQTT-3.8.1-1].
// Variable header: packet identifier. Payload: one or more topic filters,
// each followed by a requested QoS byte; an empty list is a protocol
// violation [MQTT-3.8.3-3]. This broker matches filters as exact byte
// strings, no wildcard expansion.
type SUBSCRIBE struct {
	*FixedHeader

	PacketID uint16 `json:"PacketID,omitempty"`

	Subscriptions []Subscription `json:"Subscriptions,omitempty"`
}

func (pkt *SUBSCRIBE) Kind() byte {
	return 0x8
}

func (pkt *SUBSCRIBE) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.Write(i2b(pkt.PacketID))
	for _, subscription := range pkt.Subscriptions {
		if subscription.TopicFilter == "" {
			return ErrProtocolViolationNoTopic
		}
		buf.Write(s2b(subscription.TopicFilter))
		buf.WriteByte(subscription.MaximumQoS)
	}
	if len(pkt.Subscriptions) == 0 {
		return ErrProtocolViolationNoTopic
	}

	pkt.FixedHeader.RemainingLength = uint32(buf.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (pkt *SUBSCRIBE) Unpack(buf *bytes.Buffer) error {
	var err error
	if pkt.PacketID, err = readU16(buf); err != nil {
		return err
	}
	for buf.Len() != 0 {
		subscription := Subscription{}
		if subscription.TopicFilter, err = readUTF8[string](buf); err != nil {
			return err
		}
		if buf.Len() == 0 {
			return ErrTruncatedPacket
		}
		options := buf.Next(1)[0]
		subscription.MaximumQoS = options & 0b00000011
		if subscription.MaximumQoS > 0x02 {
			return ErrProtocolViolationQosOutOfRange
		}
		if options&0b11111100 != 0 { // bits 7-2 are reserved in v3.1.1
			return ErrMalformedFlags
		}
		pkt.Subscriptions = append(pkt.Subscriptions, subscription)
	}
	if len(pkt.Subscriptions) == 0 {
		return ErrProtocolViolationNoTopic
	}
	return nil
}

// Subscription is one topic filter / requested QoS pair from a SUBSCRIBE
// payload. MQTT v3.1.1: section 3.8.3.
type Subscription struct {
	// TopicFilter is matched against PUBLISH topic names as an exact
	// string; this broker grants no wildcard semantics.
	TopicFilter string

	// MaximumQoS requested QoS, bits 1-0 of the subscription options
	// byte. Whatever is asked for, delivery is downgraded to QoS 0.
	MaximumQoS uint8
}

func (s *Subscription) String() string {
	return fmt.Sprintf("%s@%d", s.TopicFilter, s.MaximumQoS)
}
