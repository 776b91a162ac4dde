package smtgrid

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/golang-io/requests"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Stat struct {
	Uptime             prometheus.Counter
	ActiveSessions     prometheus.Gauge
	PacketReceived     prometheus.Counter
	ByteReceived       prometheus.Counter
	PacketSent         prometheus.Counter
	ByteSent           prometheus.Counter
	MalformedPackets   prometheus.Counter
	RefusedConnections prometheus.Counter
}

var (
	stat = Stat{
		Uptime:             prometheus.NewCounter(prometheus.CounterOpts{Name: "smtgrid_uptime_seconds", Help: "The uptime in seconds"}),
		ActiveSessions:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "smtgrid_active_session_count", Help: "The active number of MQTT sessions"}),
		PacketReceived:     prometheus.NewCounter(prometheus.CounterOpts{Name: "smtgrid_received_packets", Help: "The total number of received MQTT packets"}),
		ByteReceived:       prometheus.NewCounter(prometheus.CounterOpts{Name: "smtgrid_received_bytes", Help: "The total number of received MQTT bytes"}),
		PacketSent:         prometheus.NewCounter(prometheus.CounterOpts{Name: "smtgrid_send_packets", Help: "The total number of send MQTT packets"}),
		ByteSent:           prometheus.NewCounter(prometheus.CounterOpts{Name: "smtgrid_send_bytes", Help: "The total number of send MQTT bytes"}),
		MalformedPackets:   prometheus.NewCounter(prometheus.CounterOpts{Name: "smtgrid_malformed_packets", Help: "The total number of malformed MQTT frames"}),
		RefusedConnections: prometheus.NewCounter(prometheus.CounterOpts{Name: "smtgrid_refused_connections", Help: "The total number of accepts refused at the session limit"}),
	}
)

func ServerLog(ctx context.Context, stat *requests.Stat) {
	b, err := json.Marshal(stat.Request.Body)
	log.Printf("%s # body=%s, resp=%v, err=%v", stat.Print(), b, stat.Response.Body, err)
}

// Httpd serves /metrics and pprof on the given URL. Disabled entirely
// when the broker runs without an HTTP listener configured.
func Httpd(url string) error {
	stat.Register()
	stat.RefreshUptime()
	mux := requests.NewServeMux(requests.URL(url), requests.Logf(ServerLog))
	mux.Route("/metrics", promhttp.Handler())
	mux.Pprof()
	s := requests.NewServer(context.Background(), mux, requests.OnStart(func(s *http.Server) {
		log.Printf("http serve: %s", s.Addr)
	}))
	return s.ListenAndServe()
}

func (s *Stat) RefreshUptime() {
	go func() {
		tick := time.NewTicker(time.Second)
		for range tick.C {
			s.Uptime.Inc()
		}
	}()
}

func (s *Stat) Register() {
	prometheus.MustRegister(stat.Uptime)
	prometheus.MustRegister(stat.ActiveSessions)
	prometheus.MustRegister(stat.PacketReceived)
	prometheus.MustRegister(stat.ByteReceived)
	prometheus.MustRegister(stat.PacketSent)
	prometheus.MustRegister(stat.ByteSent)
	prometheus.MustRegister(stat.MalformedPackets)
	prometheus.MustRegister(stat.RefusedConnections)
}
