package smtgrid

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net"
	"net/url"
	"time"

	"github.com/gtofzz/smtgrid/packet"
	"golang.org/x/net/websocket"
	"golang.org/x/sync/errgroup"
)

// A Client is a minimal MQTT 3.1.1 client used by the debug tooling: it
// connects, subscribes, publishes QoS 0 messages and acknowledges QoS 1
// deliveries. It exists to poke the broker the same way an embedded
// client would, not to be a general purpose MQTT library.
type Client struct {
	// URL to dial. Supported schemes: mqtt/tcp, ws, wss.
	URL *url.URL

	conn *conn

	// DialContext specifies the dial function for creating unencrypted
	// TCP connections. If nil, package net dials.
	DialContext func(ctx context.Context, network, addr string) (net.Conn, error)

	// TLSClientConfig specifies the TLS configuration used for wss
	// dials. If nil, the default configuration is used.
	TLSClientConfig *tls.Config

	options Options
	recv    [0xF + 1]chan packet.Packet
	nextID  uint16

	onMessage func(*packet.Message)
}

func (c *Client) ID() string {
	return c.conn.ID
}

func New(opts ...Option) *Client {
	options := newOptions(opts...)
	client := &Client{
		options: options,
		conn:    &conn{},
		recv:    [0xF + 1]chan packet.Packet{},
	}

	for i := 1; i <= 0xF; i++ {
		client.recv[i] = make(chan packet.Packet, 1)
	}
	client.recv[PUBLISH] = make(chan packet.Packet, 10000)

	var err error
	if client.URL, err = url.Parse(options.URL); err != nil {
		panic(err)
	}
	return client
}

func (c *Client) dial(ctx context.Context, scheme, addr string) (net.Conn, error) {
	if c.DialContext != nil && (scheme == "tcp" || scheme == "mqtt") {
		con, err := c.DialContext(ctx, "tcp", addr)
		if con == nil && err == nil {
			err = errors.New("smtgrid: Client.DialContext hook returned (nil, nil)")
		}
		return con, err
	}

	switch scheme {
	case "ws", "wss":
		path := c.URL.Path
		if path == "" {
			path = "/mqtt"
		}
		loc := &url.URL{Scheme: scheme, Host: addr, Path: path}
		originScheme := "http"
		if scheme == "wss" {
			originScheme = "https"
		}
		origin := &url.URL{Scheme: originScheme, Host: addr}

		cfg, err := websocket.NewConfig(loc.String(), origin.String())
		if err != nil {
			return nil, err
		}
		// Negotiate the mqtt subprotocol, binary frames.
		cfg.Protocol = []string{"mqtt"}
		if scheme == "wss" {
			cfg.TlsConfig = c.TLSClientConfig
		}
		ws, err := websocket.DialConfig(cfg)
		if err != nil {
			return nil, err
		}
		ws.PayloadType = websocket.BinaryFrame
		return ws, nil
	default:
		return (&net.Dialer{}).DialContext(ctx, "tcp", addr)
	}
}

func (c *Client) Close() error {
	for i := 1; i <= 0xF; i++ {
		close(c.recv[i])
	}
	return nil
}

// unpack reads packets off the wire and routes them to the per-type
// receive channels.
func (c *Client) unpack(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		pkt, err := packet.Unpack(c.conn.rwc)
		if err != nil {
			return err
		}
		c.recv[pkt.Kind()] <- pkt
	}
}

// Connect sends CONNECT and waits for the CONNACK.
func (c *Client) Connect(ctx context.Context) error {
	connect := packet.CONNECT{
		FixedHeader: &packet.FixedHeader{Kind: CONNECT},
		KeepAlive:   c.options.KeepAlive,
		ClientID:    c.options.ClientID,
	}
	if err := connect.Pack(c.conn.rwc); err != nil {
		return err
	}
	c.conn.ID = connect.ClientID

	select {
	case <-ctx.Done():
		return ctx.Err()
	case pkt, ok := <-c.recv[CONNACK]:
		if !ok {
			return ctx.Err()
		}
		connack, ok := pkt.(*packet.CONNACK)
		if !ok {
			return errors.New("smtgrid: invalid packet received")
		}
		if connack.ReturnCode.Code != 0 {
			return connack.ReturnCode
		}
		log.Printf("client connected: clientId=%s, server=%s", c.conn.ID, c.URL.Host)
	}
	return nil
}

// Subscribe sends SUBSCRIBE for the configured subscriptions and waits
// for the SUBACK.
func (c *Client) Subscribe(ctx context.Context) error {
	if len(c.options.Subscriptions) == 0 {
		return nil
	}
	c.nextID++
	sub := packet.SUBSCRIBE{
		FixedHeader:   &packet.FixedHeader{Kind: SUBSCRIBE, QoS: 1},
		PacketID:      c.nextID,
		Subscriptions: c.options.Subscriptions,
	}
	if err := sub.Pack(c.conn.rwc); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case pkt, ok := <-c.recv[SUBACK]:
		if !ok {
			return ctx.Err()
		}
		suback, ok := pkt.(*packet.SUBACK)
		if !ok {
			return errors.New("smtgrid: invalid packet received")
		}
		for _, reason := range suback.ReasonCode {
			if reason.Code == 0x80 {
				return reason
			}
		}
		log.Printf("client subscribed: clientId=%s, topics=%d", c.conn.ID, len(suback.ReasonCode))
	}
	return nil
}

// OnMessage installs the callback invoked for every received publication.
func (c *Client) OnMessage(fn func(*packet.Message)) {
	c.onMessage = fn
}

// SubmitMessage publishes one message with QoS 0.
func (c *Client) SubmitMessage(message *packet.Message) error {
	if c.conn.rwc == nil {
		return errors.New("smtgrid: not connected")
	}
	pub := packet.PUBLISH{
		FixedHeader: &packet.FixedHeader{Kind: PUBLISH},
		Message:     message,
	}
	return pub.Pack(c.conn.rwc)
}

// ServeMessage waits for one inbound publication, acknowledges it when
// its QoS asks for that, and hands it to the OnMessage callback.
func (c *Client) ServeMessage(ctx context.Context) error {
	var pub *packet.PUBLISH
	select {
	case <-ctx.Done():
		return ctx.Err()
	case pkt, ok := <-c.recv[PUBLISH]:
		if !ok {
			return errors.New("smtgrid: receive channel closed")
		}
		pub, ok = pkt.(*packet.PUBLISH)
		if !ok {
			return errors.New("smtgrid: invalid packet received")
		}
		if pub.QoS > 0 {
			puback := packet.PUBACK{
				FixedHeader: &packet.FixedHeader{Kind: PUBACK},
				PacketID:    pub.PacketID,
			}
			if err := puback.Pack(c.conn.rwc); err != nil {
				return err
			}
		}
	}
	if c.onMessage != nil {
		c.onMessage(pub.Message)
	}
	return nil
}

func (c *Client) ServeMessageLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := c.ServeMessage(ctx); err != nil {
			return err
		}
	}
}

// ConnectAndSubscribe dials, connects, subscribes and serves messages,
// redialing every few seconds until ctx ends. Useful against a broker
// that is restarted mid-observation.
func (c *Client) ConnectAndSubscribe(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	count := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			timer.Reset(3 * time.Second)
		}
		if err := c.connectAndSubscribe(ctx); err != nil {
			count++
			if count == 1 || count%10 == 0 {
				log.Printf("client connect and subscribe error[%d]: clientId=%s, err=%v", count, c.options.ClientID, err)
			}
		} else {
			count = 0
		}
	}
}

func (c *Client) connectAndSubscribe(ctx context.Context) error {
	var err error
	if c.conn.rwc, err = c.dial(ctx, c.URL.Scheme, c.URL.Host); err != nil {
		return err
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return c.unpack(ctx)
	})
	group.Go(func() error {
		<-ctx.Done()
		return c.Disconnect()
	})
	group.Go(func() error {
		if err := c.Connect(ctx); err != nil {
			return err
		}
		if err := c.Subscribe(ctx); err != nil {
			return err
		}
		return c.ServeMessageLoop(ctx)
	})
	return group.Wait()
}

// Disconnect sends DISCONNECT and closes the socket.
func (c *Client) Disconnect() error {
	disconnect := packet.DISCONNECT{
		FixedHeader: &packet.FixedHeader{Kind: DISCONNECT},
	}
	if err := disconnect.Pack(c.conn.rwc); err != nil {
		_ = c.conn.rwc.Close()
		return err
	}
	return c.conn.rwc.Close()
}
