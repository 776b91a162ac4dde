package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang-io/requests"
	"github.com/gtofzz/smtgrid"
	"github.com/gtofzz/smtgrid/packet"
	"golang.org/x/sync/errgroup"
)

// A small load generator for the debug broker: many concurrent sessions,
// each subscribing to its own topic and publishing into it once a
// second. With -paho the sessions use the Eclipse paho client instead of
// the in-repo one, which shakes out interoperability problems the
// in-repo client would never notice.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	server := flag.String("url", "mqtt://127.0.0.1:1883", "broker URL")
	sessions := flag.Int("sessions", 100, "number of concurrent sessions")
	paho := flag.Bool("paho", false, "use the Eclipse paho client")
	flag.Parse()

	group, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < *sessions; i++ {
		if *paho {
			group.Go(func() error {
				return pahoStart(*server, i)
			})
			continue
		}
		group.Go(func() error {
			return start(ctx, *server, i)
		})
	}
	if err := group.Wait(); err != nil {
		log.Fatal(err)
	}
}

func start(ctx context.Context, server string, i int) error {
	topicName := fmt.Sprintf("topic_%02d", i)
	c := smtgrid.New(
		smtgrid.URL(server),
		smtgrid.Subscription(packet.Subscription{TopicFilter: topicName}),
	)
	c.OnMessage(func(msg *packet.Message) {
		log.Printf("clientId=%s, %s, payload=%s", c.ID(), msg.String(), msg.Content)
	})

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			if err := c.SubmitMessage(&packet.Message{TopicName: topicName, Content: []byte("hello world")}); err != nil {
				log.Printf("publish: err=%v", err)
			}
		}
	})
	group.Go(func() error {
		return c.ConnectAndSubscribe(ctx)
	})
	return group.Wait()
}

func onMessageReceived(client paho_mqtt.Client, message paho_mqtt.Message) {
	log.Printf("topic:%s, msg:%s", message.Topic(), message.Payload())
}

func pahoStart(server string, i int) error {
	topicName := fmt.Sprintf("topic_%02d", i)
	qos := byte(0x00)
	id := requests.GenId()
	connOpts := paho_mqtt.NewClientOptions().AddBroker(server).SetClientID(id).SetCleanSession(true)
	connOpts.SetAutoReconnect(false)

	client := paho_mqtt.NewClient(connOpts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("connected to %s", server)

	if token := client.Subscribe(topicName, qos, onMessageReceived); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		if t := client.Publish(topicName, qos, false, fmt.Sprintf("paho_mqtt:test-%02d", i)); t.Wait() && t.Error() != nil {
			return t.Error()
		}
	}
	return nil
}
