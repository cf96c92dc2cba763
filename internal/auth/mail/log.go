package mail

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/realmauth/pkg/slogx"
)

// LogTransport writes messages to the log instead of sending them. Meant for
// development, where the links are copied out of the log.
type LogTransport struct {
	Logger *slog.Logger
}

func (t LogTransport) Send(ctx context.Context, msg Message) error {
	log := t.Logger
	if log == nil {
		log = slogx.FromContext(ctx)
	}
	log.InfoContext(ctx, "mail not sent (log transport)",
		slog.String("kind", string(msg.Kind)),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("body", msg.Body),
	)
	return nil
}
