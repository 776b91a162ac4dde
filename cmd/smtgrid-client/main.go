package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gtofzz/smtgrid"
	"github.com/gtofzz/smtgrid/packet"
	"golang.org/x/sync/errgroup"
)

func main() {
	u := flag.String("url", "mqtt://127.0.0.1:1883", "broker URL")
	topics := flag.String("topics", "smtgrid/heartbeat", "comma separated topics to subscribe")
	publish := flag.String("publish", "smtgrid/heartbeat", "topic for the heartbeat publish, empty disables")
	interval := flag.Duration("interval", time.Second, "heartbeat publish interval")
	flag.Parse()

	var subs []packet.Subscription
	for _, topicName := range strings.Split(*topics, ",") {
		if topicName = strings.TrimSpace(topicName); topicName != "" {
			subs = append(subs, packet.Subscription{TopicFilter: topicName})
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := smtgrid.New(smtgrid.URL(*u), smtgrid.Subscription(subs...))
	c.OnMessage(func(msg *packet.Message) {
		log.Printf("on: %s, payload=%s", msg.String(), msg.Content)
	})

	group, ctx := errgroup.WithContext(ctx)
	if *publish != "" {
		group.Go(func() error {
			ticker := time.NewTicker(*interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
				}
				if err := c.SubmitMessage(&packet.Message{
					TopicName: *publish,
					Content:   []byte(time.Now().Format("2006-01-02 15:04:05")),
				}); err != nil {
					log.Printf("publish: err=%v", err)
				}
			}
		})
	}
	group.Go(func() error {
		return c.ConnectAndSubscribe(ctx)
	})
	if err := group.Wait(); err != nil && ctx.Err() == nil {
		log.Fatal(err)
	}
}
