// Package bus mirrors accepted events onto a NATS subject so on-host
// subscribers (response tooling, local dashboards) can react without
// tailing the log file. The mirror is fire-and-forget: publish failures are
// logged by the caller and never affect the chain log or delivery.
package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the subject detected events are mirrored to.
const DefaultSubject = "fim.events.detected"

// Publisher publishes raw event payloads to a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

// NATSPublisher implements Publisher over a NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
}

// Connect establishes a NATS connection that reconnects indefinitely.
func Connect(url, name string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS %s: %w", url, err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// Publish sends data to the subject. The send is asynchronous on the NATS
// client's buffer; ctx is only checked before handing off.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// Close drains buffered messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
