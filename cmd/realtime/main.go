package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	natsadapter "github.com/thihaagset01/midwhereah/internal/adapters/nats"
	"github.com/thihaagset01/midwhereah/internal/pkg/config"
	"github.com/thihaagset01/midwhereah/internal/pkg/logging"
)

// The realtime relay consumes optimization lifecycle events and republishes
// compact frames on the broadcast subject, where API instances fan them out
// to their WebSocket clients. Running it standalone keeps slow consumers off
// the API's publish path.

type broadcastFrame struct {
	Type     string          `json:"type"`
	GroupKey string          `json:"group_key,omitempty"`
	Payload  json.RawMessage `json:"payload"`
	At       time.Time       `json:"at"`
}

func main() {
	cfg, err := config.Load("midwhereah-realtime")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("midwhereah-realtime", logLevel, "json")

	if !cfg.NATS.Enabled {
		log.Fatal("realtime relay requires nats.enabled=true")
	}

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats publisher: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	ctx := context.Background()
	var relayed, dropped atomic.Int64

	err = sub.SubscribeLifecycle(func(subject string, data []byte) {
		frame := broadcastFrame{
			Type:     eventType(subject),
			GroupKey: extractGroupKey(data),
			Payload:  json.RawMessage(data),
			At:       time.Now().UTC(),
		}
		out, err := json.Marshal(frame)
		if err != nil {
			dropped.Add(1)
			return
		}
		if err := pub.PublishBroadcast(ctx, out); err != nil {
			dropped.Add(1)
			slog.Warn("broadcast publish failed", "subject", subject, "error", err)
			return
		}
		relayed.Add(1)
	})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	slog.Info("realtime relay started", "nats", cfg.NATS.URL)

	// Periodic throughput report
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			r := relayed.Swap(0)
			d := dropped.Swap(0)
			if r > 0 || d > 0 {
				slog.Info("relay throughput", "relayed", r, "dropped", d)
			}
		case sig := <-quit:
			slog.Info("shutting down realtime relay", "signal", sig.String())
			return
		}
	}
}

// eventType maps a lifecycle subject to a client-facing frame type, e.g.
// meetpoint.optimization.completed becomes "optimization.completed".
func eventType(subject string) string {
	parts := strings.SplitN(subject, ".", 2)
	if len(parts) == 2 {
		return parts[1]
	}
	return subject
}

// extractGroupKey pulls the group key out of a lifecycle payload without
// caring which event shape it is.
func extractGroupKey(data []byte) string {
	var probe struct {
		GroupKey string `json:"group_key"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return ""
	}
	return probe.GroupKey
}
