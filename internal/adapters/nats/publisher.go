package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/thihaagset01/midwhereah/internal/core/domain"
)

// Subjects for optimization lifecycle events. The WebSocket relay subscribes
// to the wildcard and forwards whatever arrives.
const (
	SubjectStarted   = "meetpoint.optimization.started"
	SubjectCompleted = "meetpoint.optimization.completed"
	SubjectBroadcast = "meetpoint.updates.broadcast"
	SubjectWildcard  = "meetpoint.optimization.>"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

type startedEvent struct {
	GroupKey         string    `json:"group_key"`
	ParticipantCount int       `json:"participant_count"`
	At               time.Time `json:"at"`
}

type completedEvent struct {
	GroupKey string                     `json:"group_key"`
	Result   *domain.OptimizationResult `json:"result"`
	At       time.Time                  `json:"at"`
}

// NewPublisher connects to NATS and ensures the lifecycle stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "MEETPOINT",
		Subjects:  []string{SubjectWildcard},
		Retention: nats.InterestPolicy,
		MaxAge:    1 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

func (p *Publisher) PublishOptimizationStarted(ctx context.Context, groupKey string, participantCount int) error {
	data, err := json.Marshal(startedEvent{
		GroupKey:         groupKey,
		ParticipantCount: participantCount,
		At:               time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectStarted, data)
	return err
}

func (p *Publisher) PublishOptimizationCompleted(ctx context.Context, groupKey string, result *domain.OptimizationResult) error {
	data, err := json.Marshal(completedEvent{
		GroupKey: groupKey,
		Result:   result,
		At:       time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectCompleted, data)
	return err
}

func (p *Publisher) PublishBroadcast(ctx context.Context, data []byte) error {
	return p.conn.Publish(SubjectBroadcast, data)
}

// Ping reports connection liveness, for readiness checks.
func (p *Publisher) Ping() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
