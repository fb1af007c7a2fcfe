/*
Package presence derives who is online from heartbeat timestamps.

Each heartbeat stores the current time for a user in the presence map. A user
counts as online while their last heartbeat is younger than Threshold. Stale
entries are never purged; they are filtered out when read.
*/
package presence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"satorugram/internal/app/fanout"
	"satorugram/internal/app/kv"
	"satorugram/internal/app/record"
	"satorugram/internal/pkg/clock"
	"satorugram/internal/pkg/errs"
	"satorugram/internal/pkg/logx"
)

// Threshold is how long a heartbeat keeps a user online.
const Threshold = 30 * time.Second

// Tracker owns the presence map.
type Tracker struct {
	seen *record.Mapping[int64]
	bus  fanout.Publisher
	now  clock.Clock

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex

	logger zerolog.Logger
}

// NewTracker binds a Tracker to the presence map of ns.
func NewTracker(store kv.Store, ns record.Namespace, bus fanout.Publisher, now clock.Clock) *Tracker {
	return &Tracker{
		seen:   record.NewMapping[int64](store, ns, record.Online),
		bus:    bus,
		now:    now,
		logger: logx.Component("presence"),
	}
}

// Heartbeat records that userID is active now.
func (t *Tracker) Heartbeat(ctx context.Context, userID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := t.seen.Load(ctx)
	seen[userID] = clock.Millis(t.now())

	if err := t.seen.Replace(ctx, seen); err != nil {
		return errs.Wrap(errs.ErrStorageWriteFailed, err)
	}

	t.bus.Publish(fanout.Online)
	return nil
}

// IsOnline reports whether userID sent a heartbeat within Threshold.
func (t *Tracker) IsOnline(ctx context.Context, userID string) bool {
	last, ok := t.seen.Load(ctx)[userID]
	return ok && t.fresh(last, clock.Millis(t.now()))
}

// OnlineCount returns the number of users currently online.
func (t *Tracker) OnlineCount(ctx context.Context) int {
	return len(t.OnlineUsers(ctx))
}

// OnlineUsers returns the ids of users currently online, sorted.
func (t *Tracker) OnlineUsers(ctx context.Context) []string {
	now := clock.Millis(t.now())

	online := make([]string, 0)
	for id, last := range t.seen.Load(ctx) {
		if t.fresh(last, now) {
			online = append(online, id)
		}
	}
	sort.Strings(online)
	return online
}

// LastSeen returns the time of userID's last heartbeat.
func (t *Tracker) LastSeen(ctx context.Context, userID string) (time.Time, bool) {
	last, ok := t.seen.Load(ctx)[userID]
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(last), true
}

// Run sends a heartbeat for userID right away and then every interval until
// ctx is cancelled. Failed heartbeats are logged and retried on the next tick.
func (t *Tracker) Run(ctx context.Context, userID string, interval time.Duration) {
	logger := t.logger.With().Str("user_id", userID).Logger()
	logger.Debug().Dur("interval", interval).Msg("Heartbeat loop started.")
	defer logger.Debug().Msg("Heartbeat loop stopped.")

	beat := func() {
		if err := t.Heartbeat(ctx, userID); err != nil {
			logger.Warn().Err(err).Msg("Heartbeat failed.")
		}
	}

	beat()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			beat()
		}
	}
}

func (t *Tracker) fresh(last, now int64) bool {
	return now-last < Threshold.Milliseconds()
}
