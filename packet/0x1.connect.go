package packet

import (
	"bytes"
	"io"

	"github.com/golang-io/requests"
)

// NAME is the length-prefixed protocol name "MQTT" that opens every
// CONNECT variable header. MQTT v3.1.1: section 3.1.2.1 Protocol Name.
var NAME = []byte{0x0, 0x4, 'M', 'Q', 'T', 'T'}

// CONNECT is the first packet a client sends after opening the network
// connection. MQTT v3.1.1: section 3.1 CONNECT - Client requests a
// connection to a Server.
//
// Variable header: protocol name, protocol level, connect flags, keep
// alive. Payload: client identifier, then optional will topic/message and
// username/password depending on the connect flags.
//
// This broker is deliberately permissive: the protocol name and level are
// read but not enforced, and the will/credential fields are skipped. A
// second CONNECT on a live session is tolerated and simply refreshes the
// client identifier; embedded clients that reconnect without closing
// first depend on that.
type CONNECT struct {
	*FixedHeader

	// Level is the protocol level byte; 4 for v3.1.1.
	Level byte

	ConnectFlags ConnectFlags

	// KeepAlive interval in seconds; 0 disables the keep alive mechanism.
	KeepAlive uint16

	// ClientID identifies the session. When the client sends an empty
	// identifier a locally generated placeholder is assigned, stable for
	// the life of the session.
	ClientID string `json:"ClientID,omitempty"`
}

func (pkt *CONNECT) Kind() byte {
	return 0x1
}

func (pkt *CONNECT) String() string {
	return "[0x1]CONNECT"
}

func (pkt *CONNECT) Pack(w io.Writer) error {
	buf := GetBuffer()
	defer PutBuffer(buf)

	buf.Write(NAME)
	if pkt.Level == 0 {
		pkt.Level = VERSION311
	}
	buf.WriteByte(pkt.Level)
	buf.WriteByte(byte(pkt.ConnectFlags) | 0x02) // CleanSession is always set
	buf.Write(i2b(pkt.KeepAlive))
	buf.Write(s2b(pkt.ClientID))

	pkt.FixedHeader.RemainingLength = uint32(buf.Len())
	if err := pkt.FixedHeader.Pack(w); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (pkt *CONNECT) Unpack(buf *bytes.Buffer) error {
	if _, err := readUTF8[[]byte](buf); err != nil { // protocol name, not enforced
		return err
	}
	if buf.Len() < 4 { // level, flags, keep alive
		return ErrTruncatedPacket
	}
	pkt.Level = buf.Next(1)[0]
	pkt.ConnectFlags = ConnectFlags(buf.Next(1)[0])
	keepAlive, err := readU16(buf)
	if err != nil {
		return err
	}
	pkt.KeepAlive = keepAlive

	// An absent or empty client id gets a generated placeholder so every
	// later log line can still name the session.
	if pkt.ClientID, err = readUTF8[string](buf); err != nil || pkt.ClientID == "" {
		pkt.ClientID = "smtgrid-" + requests.GenId()
	}
	// Will topic/message and username/password may follow; none of them
	// are honored here, so the rest of the payload is dropped.
	buf.Next(buf.Len())
	return nil
}

// ConnectFlags is the connect flags byte. MQTT v3.1.1: section 3.1.2.3.
type ConnectFlags byte

func (f ConnectFlags) UserNameFlag() bool { return f&0x80 != 0 }
func (f ConnectFlags) PasswordFlag() bool { return f&0x40 != 0 }
func (f ConnectFlags) WillRetain() bool   { return f&0x20 != 0 }
func (f ConnectFlags) WillQoS() uint8     { return uint8(f&0x18) >> 3 }
func (f ConnectFlags) WillFlag() bool     { return f&0x04 != 0 }
func (f ConnectFlags) CleanSession() bool { return f&0x02 != 0 }
func (f ConnectFlags) Reserved() uint8    { return uint8(f & 0x01) }
