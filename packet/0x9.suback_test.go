package packet

import (
	"bytes"
	"errors"
	"testing"
)

func TestSubackPackBytes(t *testing.T) {
	var buf bytes.Buffer
	suback := &SUBACK{
		FixedHeader: &FixedHeader{Kind: 0x9},
		PacketID:    1,
		ReasonCode:  []ReasonCode{{Code: 0x00}},
	}
	if err := suback.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	want := []byte{0x90, 0x03, 0x00, 0x01, 0x00}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("Pack = % X, want % X", buf.Bytes(), want)
	}
}

// One granted-QoS byte per topic filter, in order.
func TestSubackOneGrantPerFilter(t *testing.T) {
	var buf bytes.Buffer
	suback := &SUBACK{
		FixedHeader: &FixedHeader{Kind: 0x9},
		PacketID:    7,
		ReasonCode:  []ReasonCode{{Code: 0x00}, {Code: 0x00}, {Code: 0x00}},
	}
	if err := suback.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	want := []byte{0x90, 0x05, 0x00, 0x07, 0x00, 0x00, 0x00}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("Pack = % X, want % X", buf.Bytes(), want)
	}
}

func TestSubackPackEmpty(t *testing.T) {
	suback := &SUBACK{FixedHeader: &FixedHeader{Kind: 0x9}, PacketID: 1}
	if err := suback.Pack(&bytes.Buffer{}); !errors.Is(err, ErrMalformedReasonCode) {
		t.Errorf("Pack err = %v, want ErrMalformedReasonCode", err)
	}
}

func TestSubackUnpack(t *testing.T) {
	pkt, err := Decode([]byte{0x90, 0x03, 0x00, 0x01, 0x00})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	suback := pkt.(*SUBACK)
	if suback.PacketID != 1 || len(suback.ReasonCode) != 1 || suback.ReasonCode[0].Code != 0 {
		t.Errorf("suback = %+v", suback)
	}
}
