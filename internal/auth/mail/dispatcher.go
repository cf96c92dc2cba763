package mail

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/realmauth/pkg/slogx"
)

// DefaultSendTimeout bounds a single background delivery.
const DefaultSendTimeout = 30 * time.Second

var ErrDispatcherClosed = errors.New("mail: dispatcher closed")

// Dispatcher makes a Transport fire-and-forget. Send returns immediately and
// delivery runs in the background under its own timeout, detached from the
// request that triggered it. Failures are logged.
type Dispatcher struct {
	next    Transport
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDispatcher(next Transport, timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{next: next, timeout: timeout, logger: logger}
}

func (d *Dispatcher) Send(ctx context.Context, msg Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	log := d.logger
	if l, ok := slogx.Lookup(ctx); ok {
		log = l
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.next.Send(sendCtx, msg); err != nil {
			log.Warn("mail delivery failed",
				slog.String("kind", string(msg.Kind)),
				slog.Any("err", err),
			)
			return
		}
		log.Debug("mail delivered", slog.String("kind", string(msg.Kind)))
	}()
	return nil
}

// Close stops accepting messages and waits for in-flight deliveries, or for
// ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
