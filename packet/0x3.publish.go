package packet

import (
	"bytes"
	"fmt"
	"io"
)

// Message is the application payload of a PUBLISH: a topic name and an
// opaque byte content. The broker routes on the exact topic string and
// never interprets the content; decoding it for display is a logging
// concern, not a routing one.
type Message struct {
	TopicName string
	Content   []byte
}

func (m *Message) String() string {
	return fmt.Sprintf("topic=%s, size=%d", m.TopicName, len(m.Content))
}

// PUBLISH transports an application message. MQTT v3.1.1: section 3.3
// PUBLISH - Publish message.
//
// Fixed header flags carry DUP, QoS and RETAIN. Variable header: topic
// name, then a packet identifier when QoS > 0. Everything after that is
// the payload, which may be empty [MQTT-3.3.3].
type PUBLISH struct {
	*FixedHeader

	// PacketID present only when QoS > 0 [MQTT-2.3.1-5].
	PacketID uint16 `json:"PacketID,omitempty"`

	Message *Message `json:"Message,omitempty"`
}

func (pkt *PUBLISH) Kind() byte {
	return 0x3
}

func (pkt *PUBLISH) Pack(w io.Writer) error {
	if pkt.Message == nil || pkt.Message.TopicName == "" {
		return ErrTopicNameInvalid
	}
	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.Write(s2b(pkt.Message.TopicName))
	if pkt.FixedHeader.QoS > 0 {
		buf.Write(i2b(pkt.PacketID))
	}
	buf.Write(pkt.Message.Content)

	pkt.FixedHeader.RemainingLength = uint32(buf.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (pkt *PUBLISH) Unpack(buf *bytes.Buffer) error {
	topicName, err := readUTF8[string](buf)
	if err != nil {
		return err
	}
	if topicName == "" {
		return ErrTopicNameInvalid
	}
	pkt.Message = &Message{TopicName: topicName}
	if pkt.FixedHeader.QoS > 0 {
		if pkt.PacketID, err = readU16(buf); err != nil {
			return err
		}
	}
	pkt.Message.Content = bytes.Clone(buf.Next(buf.Len()))
	return nil
}
