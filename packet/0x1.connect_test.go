package packet

import (
	"bytes"
	"strings"
	"testing"
)

// CONNECT, protocol "MQTT", level 4, clean session, keepalive 60,
// empty client id.
var connectFrame = []byte{
	0x10, 0x0C,
	0x00, 0x04, 'M', 'Q', 'T', 'T',
	0x04, 0x02, 0x00, 0x3C,
	0x00, 0x00,
}

func TestConnectUnpack(t *testing.T) {
	pkt, err := Decode(connectFrame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	connect, ok := pkt.(*CONNECT)
	if !ok {
		t.Fatalf("pkt = %T, want *CONNECT", pkt)
	}
	if connect.Level != VERSION311 {
		t.Errorf("Level = %d, want 4", connect.Level)
	}
	if !connect.ConnectFlags.CleanSession() {
		t.Error("CleanSession should be set")
	}
	if connect.KeepAlive != 60 {
		t.Errorf("KeepAlive = %d, want 60", connect.KeepAlive)
	}
}

func TestConnectEmptyClientIDPlaceholder(t *testing.T) {
	pkt, err := Decode(connectFrame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	connect := pkt.(*CONNECT)
	if connect.ClientID == "" {
		t.Fatal("empty client id should get a placeholder")
	}
	if !strings.HasPrefix(connect.ClientID, "smtgrid-") {
		t.Errorf("ClientID = %q, want smtgrid- prefix", connect.ClientID)
	}
}

func TestConnectClientIDKept(t *testing.T) {
	var buf bytes.Buffer
	in := &CONNECT{FixedHeader: &FixedHeader{Kind: 0x1}, ClientID: "sensor-7"}
	if err := in.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	pkt, err := Unpack(&buf)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if got := pkt.(*CONNECT).ClientID; got != "sensor-7" {
		t.Errorf("ClientID = %q, want sensor-7", got)
	}
}

func TestConnectIgnoresTrailingPayload(t *testing.T) {
	// Will topic and message after the client id are read past, not
	// honored.
	body := []byte{
		0x00, 0x04, 'M', 'Q', 'T', 'T',
		0x04, 0x06, 0x00, 0x3C, // will flag set
		0x00, 0x01, 'c',
		0x00, 0x02, 'w', 't',
		0x00, 0x02, 'w', 'm',
	}
	frame := append([]byte{0x10, byte(len(body))}, body...)
	pkt, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := pkt.(*CONNECT).ClientID; got != "c" {
		t.Errorf("ClientID = %q, want c", got)
	}
}

func TestConnectTruncated(t *testing.T) {
	// Variable header cut short after the protocol name.
	if _, err := Decode([]byte{0x10, 0x07, 0x00, 0x04, 'M', 'Q', 'T', 'T', 0x04}); err == nil {
		t.Error("expected error for truncated CONNECT")
	}
}
