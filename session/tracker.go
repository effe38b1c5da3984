package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	cache "github.com/krisalay/expiring-cache"
	"github.com/krisalay/expiring-cache/types"
	"github.com/krisalay/expiring-cache/writepolicy"
)

var (
	// ErrNoSession is returned when a player has no game in progress.
	ErrNoSession = fmt.Errorf("session: no game in progress: %w", types.ErrNotFound)

	// ErrInvalidState is returned by Save for a GameState that cannot be stored.
	ErrInvalidState = errors.New("session: invalid game state")
)

// GameState is where a player currently is in a story.
type GameState struct {
	PlayerID string
	StoryID  int64
	Chapter  string
}

// Options configures a Tracker.
type Options struct {
	// TTL is how long a player's state stays cached after their last action.
	TTL time.Duration

	// WritePolicy selects how saves reach the backing store. Empty means write-through.
	WritePolicy writepolicy.Mode

	// WriteBuffer is the write-back queue length.
	WriteBuffer int

	// Shards is the number of independently locked containers. Below 1 means 1.
	Shards int

	// Clock and Metrics are passed to the container; both are optional.
	Clock   func() time.Time
	Metrics types.Metrics
}

// Tracker is a concurrency-safe cache of per-player GameState in front of a
// backing store.
type Tracker struct {
	states *cache.ShardedCache[string, GameState]

	store  types.Loader[string, GameState]
	writes writepolicy.WritePolicy[string, GameState]

	// flight collapses concurrent loads of the same player.
	flight singleflight.Group
}

// NewTracker builds a Tracker over store.
func NewTracker(store types.Loader[string, GameState], opts Options) *Tracker {
	var cacheOpts []cache.Option
	if opts.Clock != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(opts.Clock))
	}
	if opts.Metrics != nil {
		cacheOpts = append(cacheOpts, cache.WithMetrics(opts.Metrics))
	}

	t := &Tracker{
		states: cache.NewShardedCache[string, GameState](opts.Shards, opts.TTL, cacheOpts...),
		store:  store,
		writes: writepolicy.New(opts.WritePolicy, store, opts.WriteBuffer),
	}
	t.states.SetOnEvicted(func(playerID string, _ GameState) {
		slog.Debug("session: evicted idle player", "player", playerID)
	})
	return t
}

// Get returns the player's current state, loading it from the backing store on
// a cache miss. It returns an error wrapping ErrNoSession if the player has none.
func (t *Tracker) Get(ctx context.Context, playerID string) (GameState, error) {
	if st, ok := t.states.Get(playerID); ok {
		return st, nil
	}

	v, err, shared := t.flight.Do(playerID, func() (any, error) {
		loaded, err := t.store.Load(ctx, playerID)
		if err != nil {
			return GameState{}, err
		}

		// A Save that raced with the load is newer than what the store returned.
		t.states.Do(playerID, func(m *cache.ExpiringMap[string, GameState]) {
			if cur, ok := m.Get(playerID); ok {
				loaded = cur
				return
			}
			m.Insert(playerID, loaded)
		})
		return loaded, nil
	})
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return GameState{}, fmt.Errorf("%w: player %q", ErrNoSession, playerID)
		}
		return GameState{}, fmt.Errorf("session: load %q: %w", playerID, err)
	}

	slog.Debug("session: loaded from store", "player", playerID, "shared", shared)
	return v.(GameState), nil
}

// Save records st as the player's current state and forwards it to the backing
// store through the configured write policy. If the write policy cannot accept
// the write (for example writepolicy.ErrQueueFull) the error is returned; the
// cached state stays current but is not yet durable.
func (t *Tracker) Save(ctx context.Context, st GameState) error {
	if st.PlayerID == "" {
		return fmt.Errorf("%w: empty player id", ErrInvalidState)
	}
	if st.Chapter == "" {
		return fmt.Errorf("%w: player %q: empty chapter", ErrInvalidState, st.PlayerID)
	}

	t.states.Insert(st.PlayerID, st)

	if err := t.writes.OnWrite(ctx, st.PlayerID, st); err != nil {
		return fmt.Errorf("session: save %q: %w", st.PlayerID, err)
	}
	slog.Debug("session: saved", "player", st.PlayerID, "story", st.StoryID, "chapter", st.Chapter)
	return nil
}

// Clear forgets the player's game, both in memory and in the backing store.
// It returns once the backing store has applied the delete, so a Get after
// Clear cannot load the old game back. Clearing a player with no game is not
// an error.
func (t *Tracker) Clear(ctx context.Context, playerID string) error {
	t.states.Remove(playerID)

	if err := t.writes.OnDelete(ctx, playerID); err != nil {
		return fmt.Errorf("session: clear %q: %w", playerID, err)
	}
	slog.Info("session: cleared", "player", playerID)
	return nil
}

// Active returns the number of cached player states, including idle ones that
// have not been cleaned up yet.
func (t *Tracker) Active() int {
	return t.states.Len()
}

// Close flushes pending writes to the backing store.
func (t *Tracker) Close() {
	t.writes.Close()
}
