package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"satorugram/internal/pkg/logx"
)

// DefaultChannel is the notification channel every process shares.
const DefaultChannel = "satorugram_sync"

// PGBroadcaster relays events between processes through Postgres
// LISTEN/NOTIFY. One pooled connection is held for listening and is
// re-established with exponential backoff when it drops.
type PGBroadcaster struct {
	pool      *pgxpool.Pool
	channel   string
	listeners listeners
	logger    zerolog.Logger

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewPGBroadcaster starts listening on channel and returns immediately.
func NewPGBroadcaster(pool *pgxpool.Pool, channel string) *PGBroadcaster {
	ctx, cancel := context.WithCancel(context.Background())

	b := &PGBroadcaster{
		pool:    pool,
		channel: channel,
		logger:  logx.Component("fanout.postgres").With().Str("channel", channel).Logger(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go b.run(ctx)

	return b
}

func (b *PGBroadcaster) Broadcast(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("fanout: encode event: %w", err)
	}

	if _, err := b.pool.Exec(ctx, "SELECT pg_notify($1, $2)", b.channel, string(payload)); err != nil {
		return fmt.Errorf("fanout: notify %s: %w", b.channel, err)
	}
	return nil
}

func (b *PGBroadcaster) Listen(fn func(Event)) func() {
	return b.listeners.add(fn)
}

// Close stops the listener and waits for its connection to be released.
func (b *PGBroadcaster) Close() error {
	b.closeOnce.Do(func() {
		b.cancel()
		<-b.done
	})
	return nil
}

func (b *PGBroadcaster) run(ctx context.Context) {
	defer close(b.done)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0

	operation := func() error {
		err := b.listen(ctx, policy.Reset)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		b.logger.Warn().Err(err).Dur("retry_in", wait).Msg("Notification listener lost its connection.")
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify)
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error().Err(err).Msg("Notification listener stopped.")
	}
}

// listen holds one connection until it fails or ctx ends. connected is called
// once LISTEN succeeds so the retry delay starts over after a healthy session.
func (b *PGBroadcaster) listen(ctx context.Context, connected func()) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{b.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", b.channel, err)
	}
	connected()
	b.logger.Debug().Msg("Listening for notifications.")

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				// A broken connection must not go back to the pool.
				_ = conn.Conn().Close(context.Background())
			}
			return fmt.Errorf("wait for notification: %w", err)
		}

		var e Event
		if err := json.Unmarshal([]byte(notification.Payload), &e); err != nil {
			b.logger.Warn().Err(err).Str("payload", notification.Payload).Msg("Dropping malformed notification.")
			continue
		}
		b.listeners.dispatch(e)
	}
}
