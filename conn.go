package smtgrid

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gtofzz/smtgrid/packet"
	"github.com/gtofzz/smtgrid/topic"
)

// conn represents the server side of one MQTT session.
type conn struct {
	// server is the server on which the connection arrived. Immutable; never nil.
	server *Server

	// cancelCtx cancels the connection-level context.
	cancelCtx context.CancelFunc

	// rwc is the underlying network connection. Owned by exactly this
	// session; closed exactly once (closeOnce): early by a failed write or
	// by server shutdown, otherwise on the transition to StateClosed.
	rwc net.Conn

	// remoteAddr is rwc.RemoteAddr().String(). It is populated
	// immediately inside the (*conn).serve goroutine.
	remoteAddr string

	curState atomic.Uint64 // packed (unix time<<8|uint8(ConnState))

	// ID is the client identifier, assigned at CONNECT. A repeated
	// CONNECT refreshes it.
	ID string

	// inbox accumulates unprocessed bytes; between dispatches it holds
	// at most one partial frame prefix.
	inbox Inbox

	// topics is this session's own subscription set, mirrored in the
	// server's subscription index.
	topics *topic.Set

	closeOnce sync.Once
	mu        sync.Mutex // serializes writes to rwc
}

func newConn(s *Server, rwc net.Conn) *conn {
	return &conn{server: s, rwc: rwc, topics: topic.NewSet()}
}

func (c *conn) setState(nc net.Conn, state ConnState, runHook bool) {
	srv := c.server
	switch state {
	case StateNew:
		srv.trackConn(c, true)
	case StateClosed:
		srv.trackConn(c, false)
	default:
	}
	if state > 0xFF || state < 0 {
		panic("invalid conn state")
	}
	packedState := uint64(time.Now().Unix()<<8) | uint64(state)
	c.curState.Store(packedState)
	if !runHook {
		return
	}
	if hook := srv.ConnState; hook != nil {
		hook(nc, state)
	}
}

func (c *conn) getState() (state ConnState, unixSec int64) {
	packedState := c.curState.Load()
	return ConnState(packedState & 0xFF), int64(packedState >> 8)
}

// Close the connection.
func (c *conn) close() {
	c.closeOnce.Do(func() {
		_ = c.rwc.Close()
	})
}

// Serve a new connection: read into the inbox, split complete frames,
// dispatch each to the protocol handler, until the session drains.
func (c *conn) serve(ctx context.Context) {
	if ra := c.rwc.RemoteAddr(); ra != nil {
		c.remoteAddr = ra.String()
	}

	c.server.logf("session accepted: remote=%s", c.remoteAddr)

	defer func() {
		if err := recover(); err != nil && err != ErrAbortHandler {
			buf := make([]byte, size)
			buf = buf[:runtime.Stack(buf, false)]
			log.Printf("smtgrid: panic serving %v: %v", c.remoteAddr, err)
			log.Printf("%s", buf)
		}

		c.server.logf("session closed: clientId=%s, remote=%s", c.ID, c.remoteAddr)

		c.server.memorySubscribed.DropConn(c)
		c.close()
		c.setState(c.rwc, StateClosed, true)
	}()

	ctx, cancel := context.WithCancel(ctx)
	c.cancelCtx = cancel
	defer cancel()

	buf := make([]byte, readSize)
	for {
		n, err := c.rwc.Read(buf)
		if n > 0 {
			stat.ByteReceived.Add(float64(n))
			c.inbox.Append(buf[:n])
			if !c.dispatch() {
				return
			}
		}
		if err != nil {
			if err != io.EOF && !errors.Is(err, net.ErrClosed) {
				log.Printf("read failed: clientId=%s, remote=%s, err=%v", c.ID, c.remoteAddr, err)
			}
			c.setState(c.rwc, StateDraining, true)
			return
		}
	}
}

// dispatch drains every complete frame from the inbox. It reports
// whether the session may keep reading; false means the session has
// transitioned to Draining.
func (c *conn) dispatch() bool {
	for {
		frame, err := c.inbox.Next()
		if errors.Is(err, packet.ErrIncompleteFrame) {
			return true
		}
		if err != nil {
			// The frame boundary is unknowable once the Remaining Length
			// cannot be parsed, so everything buffered goes with it.
			stat.MalformedPackets.Inc()
			log.Printf("malformed frame: clientId=%s, remote=%s, err=%v", c.ID, c.remoteAddr, err)
			c.inbox.Reset()
			if c.server.DisconnectOnError {
				c.setState(c.rwc, StateDraining, true)
				return false
			}
			return true
		}

		stat.PacketReceived.Inc()
		if c.server.LogRaw {
			c.server.logf("recv: clientId=%s, kind=%d, frame=% X", c.ID, frame[0]>>4, frame)
		}

		pkt, err := packet.Decode(frame)
		if err != nil {
			stat.MalformedPackets.Inc()
			log.Printf("malformed packet: clientId=%s, remote=%s, kind=%d, err=%v", c.ID, c.remoteAddr, frame[0]>>4, err)
			if c.server.DisconnectOnError {
				c.setState(c.rwc, StateDraining, true)
				return false
			}
			continue
		}

		if state, _ := c.getState(); state == StateNew && pkt.Kind() != CONNECT {
			// Permissive policy: process it anyway, but say so.
			log.Printf("packet before CONNECT: remote=%s, kind=%s", c.remoteAddr, packet.Kind[pkt.Kind()])
		}

		serverHandler{c.server}.ServeMQTT(&response{conn: c, packet: pkt}, pkt)

		if state, _ := c.getState(); state >= StateDraining {
			return false
		}
	}
}

// countWriter counts the bytes written through it, for the send-side
// byte counters.
type countWriter struct {
	w io.Writer
	n int
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += n
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

type defaultHandler struct{}

func (defaultHandler) ServeMQTT(w ResponseWriter, req packet.Packet) {
	var spkt packet.Packet
	c := w.(*response).conn
	srv := c.server
	switch rpkt := req.(type) {
	case *packet.UNKNOWN:
		// PUBREC/PUBREL/PUBCOMP, UNSUBSCRIBE, AUTH and friends: no
		// response, session stays up.
		log.Printf("unsupported packet: clientId=%s, remote=%s, kind=%d", c.ID, c.remoteAddr, rpkt.Kind())
		return
	case *packet.CONNECT:
		// A repeated CONNECT is tolerated: it refreshes the client id
		// and is acknowledged again. Embedded clients that reconnect
		// without closing first depend on this.
		if state, _ := c.getState(); state == StateConnected {
			srv.logf("connect repeated: clientId=%s, newClientId=%s, remote=%s", c.ID, rpkt.ClientID, c.remoteAddr)
		}
		c.ID = rpkt.ClientID
		if d := srv.ConnectDelay; d > 0 {
			time.Sleep(d)
		}
		c.setState(c.rwc, StateConnected, true)
		srv.logf("client connected: clientId=%s, remote=%s, keepalive=%d", c.ID, c.remoteAddr, rpkt.KeepAlive)
		spkt = &packet.CONNACK{FixedHeader: &packet.FixedHeader{Kind: CONNACK}}
	case *packet.PUBLISH:
		if srv.LogPayload {
			srv.logf("publish: clientId=%s, topic=%s, qos=%d, payload=%s", c.ID, rpkt.Message.TopicName, rpkt.QoS, rpkt.Message.Content)
		}
		_ = srv.memorySubscribed.Exchange(rpkt.Message, c)
		if rpkt.QoS == 0 {
			return
		}
		// QoS 1 and, non-conformantly, QoS 2 both get a PUBACK with the
		// client-supplied id. Nothing is ever replayed.
		spkt = &packet.PUBACK{FixedHeader: &packet.FixedHeader{Kind: PUBACK}, PacketID: rpkt.PacketID}
	case *packet.SUBSCRIBE:
		reasons := make([]packet.ReasonCode, 0, len(rpkt.Subscriptions))
		topics := make([]string, 0, len(rpkt.Subscriptions))
		for _, subscription := range rpkt.Subscriptions {
			srv.memorySubscribed.Subscribe(subscription.TopicFilter, c)
			reasons = append(reasons, packet.ReasonCode{Code: 0x00}) // every grant is QoS 0
			topics = append(topics, subscription.TopicFilter)
		}
		srv.logf("client subscribed: clientId=%s, remote=%s, topics=%v", c.ID, c.remoteAddr, topics)
		spkt = &packet.SUBACK{FixedHeader: &packet.FixedHeader{Kind: SUBACK}, PacketID: rpkt.PacketID, ReasonCode: reasons}
	case *packet.PINGREQ:
		spkt = &packet.PINGRESP{FixedHeader: &packet.FixedHeader{Kind: PINGRESP}}
	case *packet.DISCONNECT:
		srv.logf("client requested disconnect: clientId=%s, remote=%s", c.ID, c.remoteAddr)
		c.setState(c.rwc, StateDraining, true)
		return
	case *packet.CONNACK, *packet.SUBACK, *packet.PINGRESP, *packet.PUBACK:
		// Server-to-client packets arriving here are a confused client;
		// ignore them.
		return
	default:
		panic(fmt.Sprintf("unknown packet type: %T", rpkt))
	}
	if err := w.OnSend(spkt); err != nil {
		log.Printf("send failed: clientId=%s, remote=%s, err=%v", c.ID, c.remoteAddr, err)
	}
}
