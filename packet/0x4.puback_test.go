package packet

import (
	"bytes"
	"testing"
)

func TestPubackPackBytes(t *testing.T) {
	var buf bytes.Buffer
	puback := &PUBACK{FixedHeader: &FixedHeader{Kind: 0x4}, PacketID: 42}
	if err := puback.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	want := []byte{0x40, 0x02, 0x00, 0x2A}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("Pack = % X, want % X", buf.Bytes(), want)
	}
}

func TestPubackUnpack(t *testing.T) {
	pkt, err := Decode([]byte{0x40, 0x02, 0x00, 0x2A})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := pkt.(*PUBACK).PacketID; got != 42 {
		t.Errorf("PacketID = %d, want 42", got)
	}
}
