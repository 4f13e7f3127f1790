package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// conn is the subset of *nats.Conn the publisher uses
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes lifecycle events to NATS
type NATSPublisher struct {
	nc     conn
	logger *slog.Logger
}

// Ensure NATSPublisher implements Publisher
var _ Publisher = (*NATSPublisher)(nil)

// NewNATS connects to the NATS server at url
func NewNATS(url string, logger *slog.Logger) (*NATSPublisher, error) {
	logger = logger.With(slog.String("component", "bus"))

	nc, err := nats.Connect(url,
		nats.Name("chessduel"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return newNATSWithConn(nc, logger), nil
}

func newNATSWithConn(nc conn, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{nc: nc, logger: logger}
}

// Publish encodes the event as JSON. The NATS client buffers the write,
// so this does not wait for the server.
func (p *NATSPublisher) Publish(_ context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to encode lifecycle event",
			slog.String("kind", string(event.Kind)),
			slog.String("error", err.Error()))
		return
	}

	if err := p.nc.Publish(event.Subject(), data); err != nil {
		p.logger.Warn("failed to publish lifecycle event",
			slog.String("room", string(event.Room)),
			slog.String("kind", string(event.Kind)),
			slog.String("error", err.Error()))
	}
}

// Close flushes pending events and closes the connection
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
