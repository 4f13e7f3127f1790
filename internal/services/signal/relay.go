package signal

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/chessduel/internal/model"
	"github.com/mcoot/chessduel/internal/services/outbox"
)

// Relay forwards call-signaling messages between connections. Payloads are
// opaque and forwarded byte for byte. Delivery is best effort: a target that
// is not connected never sees the message and the sender is not told.
type Relay struct {
	outbox *outbox.Outbox
	logger *slog.Logger
}

// NewRelay creates a Relay
func NewRelay(outbox *outbox.Outbox, logger *slog.Logger) *Relay {
	return &Relay{
		outbox: outbox,
		logger: logger.With(slog.String("component", "signal")),
	}
}

// Forward sends payload to exactly one connection, tagged with kind and the sender
func (r *Relay) Forward(from, to model.ConnectionID, kind string, payload json.RawMessage) {
	r.outbox.Send(to, model.EventSignalRelayed, model.SignalRelayedPayload{
		Kind:    kind,
		From:    from,
		Payload: payload,
	})
	r.logger.Debug("signal relayed",
		slog.String("conn", string(from)),
		slog.String("to", string(to)),
		slog.String("kind", kind))
}
