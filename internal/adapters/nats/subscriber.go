package natsadapter

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Subscriber feeds optimization lifecycle events to the realtime relay.
type Subscriber struct {
	conn *nats.Conn
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Subscriber{conn: conn}, nil
}

// SubscribeLifecycle delivers every optimization lifecycle event to handler.
// Core NATS, not JetStream: a relay that was offline has no use for replayed
// events.
func (s *Subscriber) SubscribeLifecycle(handler func(subject string, data []byte)) error {
	sub, err := s.conn.Subscribe(SubjectWildcard, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectWildcard, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// SubscribeBroadcast delivers broadcast frames to handler.
func (s *Subscriber) SubscribeBroadcast(handler func(data []byte)) error {
	sub, err := s.conn.Subscribe(SubjectBroadcast, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", SubjectBroadcast, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
