package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gtofzz/smtgrid"
	"golang.org/x/sync/errgroup"
)

// Config mirrors the command line flags; a JSON file given with -config
// is applied over them.
type Config struct {
	Host              string `json:"Host"`
	Port              int    `json:"Port"`
	MaxClients        int    `json:"MaxClients"`
	LogRaw            bool   `json:"LogRaw"`
	LogPayload        bool   `json:"LogPayload"`
	Timestamp         bool   `json:"Timestamp"`
	Reflect           bool   `json:"Reflect"`
	DisconnectOnError bool   `json:"DisconnectOnError"`
	ConnectDelayMs    int    `json:"ConnectDelayMs"`
	Quiet             bool   `json:"Quiet"`
	HTTP              string `json:"HTTP"`
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.Host, "host", "0.0.0.0", "listener bind address")
	flag.IntVar(&cfg.Port, "port", 1883, "listener port")
	flag.IntVar(&cfg.MaxClients, "max-clients", 8, "maximum concurrent sessions")
	flag.BoolVar(&cfg.LogRaw, "log-raw", false, "log hex of every received frame")
	flag.BoolVar(&cfg.LogPayload, "log-payload", false, "log publication payloads decoded as UTF-8")
	flag.BoolVar(&cfg.Timestamp, "timestamp", false, "prefix every log line with a local-time timestamp")
	flag.BoolVar(&cfg.Reflect, "reflect", false, "include the publisher among broadcast recipients")
	flag.BoolVar(&cfg.DisconnectOnError, "disconnect-on-error", false, "tear the session down on any malformed frame")
	flag.IntVar(&cfg.ConnectDelayMs, "connect-delay-ms", 0, "artificial pre-CONNACK sleep in milliseconds")
	flag.BoolVar(&cfg.Quiet, "quiet", false, "suppress non-error log output")
	flag.StringVar(&cfg.HTTP, "http", "", "metrics/pprof listener URL, empty disables")
	configPath := flag.String("config", "", "path to a JSON config file applied over the flags")
	flag.Parse()

	if *configPath != "" {
		b, err := os.ReadFile(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		if err = json.Unmarshal(b, &cfg); err != nil {
			log.Fatalf("parse config: %v", err)
		}
	}

	if cfg.Timestamp {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	} else {
		log.SetFlags(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := smtgrid.NewServer(ctx)
	s.MaxClients = cfg.MaxClients
	s.LogRaw = cfg.LogRaw
	s.LogPayload = cfg.LogPayload
	s.Reflect = cfg.Reflect
	s.DisconnectOnError = cfg.DisconnectOnError
	s.ConnectDelay = time.Duration(cfg.ConnectDelayMs) * time.Millisecond
	s.Quiet = cfg.Quiet

	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		return s.ListenAndServe(smtgrid.URL(fmt.Sprintf("mqtt://%s:%d", cfg.Host, cfg.Port)))
	})
	if cfg.HTTP != "" {
		group.Go(func() error {
			return smtgrid.Httpd(cfg.HTTP)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, smtgrid.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Printf("shutdown complete")
}
