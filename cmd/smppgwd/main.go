// Command smppgwd is the process entry point wiring the SMPP core to Redis,
// Postgres, and a Prometheus exporter. Each connection sends one bind
// record (system_id/password, checked against binddir) followed by
// already-decoded PDUs as newline-delimited JSON records - a stand-in for
// the wire codec/session library this core deliberately excludes (see
// SPEC_FULL.md §11) - which are handed to the gateway.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smpp-relay-core/binddir"
	"smpp-relay-core/config"
	"smpp-relay-core/deliver"
	"smpp-relay-core/dlr"
	"smpp-relay-core/gateway"
	"smpp-relay-core/pdu"
	"smpp-relay-core/store/rediskv"
)

// inboundRecord is the JSON shape the entry point reads from its listener:
// an already-decoded PDU (wire framing is out of core scope).
type inboundRecord struct {
	Mandatory map[string]any `json:"mandatory_parameters"`
	Optional  map[string]any `json:"optional_parameters"`
}

// bindRecord is the first line a connection must send, standing in for the
// excluded bind_transceiver PDU (see SPEC_FULL.md §11 on binddir).
type bindRecord struct {
	SystemID string `json:"system_id"`
	Password string `json:"password"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	store := rediskv.New(redisClient, 24*time.Hour)

	var directory *binddir.Directory
	if cfg.PostgresDSN != "" {
		directory, err = binddir.Open(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("binddir: %v", err)
		}
	}

	gw := gateway.New(cfg, store, directory)
	gw.OnInbound = func(msg deliver.InboundMessage) {
		log.Printf("inbound: %s -> %s [%s] %q", msg.SourceAddr, msg.DestinationAddr, msg.MessageType, msg.ShortMessage)
	}
	gw.OnDeliveryReport = func(id string, status dlr.Status) {
		log.Printf("delivery report: %s -> %s", id, status)
	}

	go serveMetrics(cfg.MetricsListen, gw)

	if err := serveInbound(cfg.ListenAddr, gw); err != nil {
		log.Fatalf("listener: %v", err)
	}
}

func serveMetrics(addr string, gw *gateway.Gateway) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(gw.Metrics)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("metrics server: %v", err)
	}
}

// serveInbound accepts connections and reads newline-delimited JSON PDU
// records from each one, handing them to the gateway in arrival order.
func serveInbound(addr string, gw *gateway.Gateway) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	defer ln.Close()
	log.Printf("smppgwd listening on %s", addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Printf("accept: %v", err)
			continue
		}
		go handleConn(conn, gw)
	}
}

func handleConn(conn net.Conn, gw *gateway.Gateway) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)

	if !scanner.Scan() {
		return
	}
	var bind bindRecord
	if err := json.Unmarshal(scanner.Bytes(), &bind); err != nil {
		log.Printf("malformed bind record from %s: %v", conn.RemoteAddr(), err)
		return
	}
	if !gw.Authenticate(bind.SystemID, bind.Password) {
		log.Printf("bind rejected for system_id %q from %s", bind.SystemID, conn.RemoteAddr())
		return
	}

	for scanner.Scan() {
		var rec inboundRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			log.Printf("malformed PDU record: %v", err)
			continue
		}

		d := &pdu.PDU{Mandatory: rec.Mandatory, Optional: rec.Optional}
		if d.Mandatory == nil {
			d.Mandatory = make(map[string]any)
		}
		if d.Optional == nil {
			d.Optional = make(map[string]any)
		}

		if gw.HandleDeliveryReportPDU(d) {
			continue
		}
		if text := d.String("short_message"); text != "" && gw.HandleDeliveryReportText(text) {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := gw.HandleInboundPDU(ctx, d); err != nil {
			log.Printf("inbound handling failed: %v", err)
		}
		cancel()
	}
	if err := scanner.Err(); err != nil {
		log.Printf("connection read error: %v", err)
	}
}

// newMessageID returns a fresh correlation id for an outbound message.
// Nothing in this entry point calls it: it handles only inbound PDUs, which
// already carry their own ids.
func newMessageID() string {
	return uuid.NewString()
}
