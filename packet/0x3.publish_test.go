package packet

import (
	"bytes"
	"errors"
	"testing"
)

func TestPublishUnpackQoS0(t *testing.T) {
	// PUBLISH QoS 0 topic="test" payload="hello"
	frame := []byte{0x30, 0x0B, 0x00, 0x04, 't', 'e', 's', 't', 'h', 'e', 'l', 'l', 'o'}
	pkt, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	pub := pkt.(*PUBLISH)
	if pub.Message.TopicName != "test" {
		t.Errorf("TopicName = %q", pub.Message.TopicName)
	}
	if !bytes.Equal(pub.Message.Content, []byte("hello")) {
		t.Errorf("Content = %q", pub.Message.Content)
	}
	if pub.QoS != 0 || pub.PacketID != 0 {
		t.Errorf("QoS = %d, PacketID = %d", pub.QoS, pub.PacketID)
	}
}

func TestPublishUnpackQoS1(t *testing.T) {
	// PUBLISH QoS 1 topic="test" packet id 42 payload="hello"
	frame := []byte{0x32, 0x0D, 0x00, 0x04, 't', 'e', 's', 't', 0x00, 0x2A, 'h', 'e', 'l', 'l', 'o'}
	pkt, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	pub := pkt.(*PUBLISH)
	if pub.QoS != 1 || pub.PacketID != 42 {
		t.Errorf("QoS = %d, PacketID = %d, want 1, 42", pub.QoS, pub.PacketID)
	}
	if !bytes.Equal(pub.Message.Content, []byte("hello")) {
		t.Errorf("Content = %q", pub.Message.Content)
	}
}

func TestPublishEmptyPayload(t *testing.T) {
	frame := []byte{0x30, 0x06, 0x00, 0x04, 't', 'e', 's', 't'}
	pkt, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := pkt.(*PUBLISH).Message.Content; len(got) != 0 {
		t.Errorf("Content = % X, want empty", got)
	}
}

func TestPublishEmptyTopic(t *testing.T) {
	frame := []byte{0x30, 0x02, 0x00, 0x00}
	if _, err := Decode(frame); !errors.Is(err, ErrTopicNameInvalid) {
		t.Errorf("Decode err = %v, want ErrTopicNameInvalid", err)
	}
}

func TestPublishMissingPacketID(t *testing.T) {
	// QoS 1 but the body ends after the topic.
	frame := []byte{0x32, 0x06, 0x00, 0x04, 't', 'e', 's', 't'}
	if _, err := Decode(frame); !errors.Is(err, ErrTruncatedPacket) {
		t.Errorf("Decode err = %v, want ErrTruncatedPacket", err)
	}
}

func TestPublishPackQoS0Bytes(t *testing.T) {
	var buf bytes.Buffer
	pub := &PUBLISH{
		FixedHeader: &FixedHeader{Kind: 0x3},
		Message:     &Message{TopicName: "test", Content: []byte("hello")},
	}
	if err := pub.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	want := []byte{0x30, 0x0B, 0x00, 0x04, 't', 'e', 's', 't', 'h', 'e', 'l', 'l', 'o'}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("Pack = % X, want % X", buf.Bytes(), want)
	}
}
