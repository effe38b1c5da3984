package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/krisalay/expiring-cache/config"
	"github.com/krisalay/expiring-cache/metrics"
	"github.com/krisalay/expiring-cache/session"
	"github.com/krisalay/expiring-cache/types"
)

// ================= BACKING STORE =================

// memoryStore stands in for the relational store that owns game progress.
type memoryStore struct {
	mu   sync.RWMutex
	data map[string]session.GameState
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]session.GameState)}
}

func (s *memoryStore) Load(_ context.Context, playerID string) (session.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.data[playerID]
	if !ok {
		return session.GameState{}, fmt.Errorf("player %q: %w", playerID, types.ErrNotFound)
	}
	slog.Info("store: load", "player", playerID)
	return st, nil
}

func (s *memoryStore) Put(_ context.Context, playerID string, st session.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[playerID] = st
	slog.Info("store: put", "player", playerID, "chapter", st.Chapter)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, playerID)
	slog.Info("store: delete", "player", playerID)
	return nil
}

// ================= MAIN =================

func main() {
	configPath := flag.String("config", "", "path to config file; defaults are used when empty")
	idle := flag.Duration("idle", 2*time.Second, "how long the walkthrough leaves a player idle")
	serve := flag.Bool("serve", false, "keep serving /metrics and watching the config after the walkthrough")
	flag.Parse()

	var level slog.LevelVar
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level})))

	// run returns before exiting so its defers flush pending writes.
	if err := run(*configPath, *idle, *serve, &level); err != nil {
		slog.Error("exiting with error", "err", err)
		os.Exit(1)
	}
	slog.Info("shut down cleanly")
}

func run(configPath string, idle time.Duration, serve bool, level *slog.LevelVar) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	level.Set(cfg.Log.SlogLevel())

	slog.Info("config loaded",
		"session_ttl", cfg.Sessions.TTL,
		"shards", cfg.Sessions.Shards,
		"write_policy", cfg.Sessions.WritePolicy,
		"metrics_addr", cfg.Metrics.Addr,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collector := metrics.NewCollector("sessions")
	store := newMemoryStore()
	tracker := session.NewTracker(store, session.Options{
		TTL:         cfg.Sessions.TTL,
		WritePolicy: cfg.Sessions.Mode(),
		WriteBuffer: cfg.Sessions.WriteBuffer,
		Shards:      cfg.Sessions.Shards,
		Metrics:     collector,
	})
	defer tracker.Close()
	collector.SetSizeFunc(tracker.Active)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}

		g.Go(func() error {
			slog.Info("metrics server listening", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			return srv.Shutdown(context.Background())
		})
	}

	if configPath != "" {
		g.Go(func() error {
			return config.Watch(gctx, configPath, func(c *config.Config) {
				// Only the log level is live; the session ttl applies on restart.
				level.Set(c.Log.SlogLevel())
				slog.Info("log level updated", "level", c.Log.Level)
			})
		})
	}

	if err := walkthrough(gctx, tracker, idle, cfg.Sessions.TTL); err != nil {
		slog.Error("walkthrough failed", "err", err)
	}

	s := collector.Snapshot()
	slog.Info("session metrics",
		"hits", s.Hits,
		"misses", s.Misses,
		"expired", s.Expired,
		"requeued", s.Requeued,
		"discarded", s.Discarded,
		"hit_ratio", s.HitRatio(),
	)

	if !serve {
		cancel()
	}
	return g.Wait()
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Parse(nil)
	}
	return config.Load(path)
}

// walkthrough plays one short story session end to end.
func walkthrough(ctx context.Context, tracker *session.Tracker, idle, ttl time.Duration) error {
	const player = "player-1"

	slog.Info("1) start a story")
	if err := tracker.Save(ctx, session.GameState{PlayerID: player, StoryID: 1, Chapter: "Start"}); err != nil {
		return err
	}

	slog.Info("2) advance a chapter (cache hit)")
	st, err := tracker.Get(ctx, player)
	if err != nil {
		return err
	}
	st.Chapter = "Crossroads"
	if err := tracker.Save(ctx, st); err != nil {
		return err
	}

	slog.Info("3) go idle", "for", idle, "ttl", ttl)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(idle):
	}

	slog.Info("4) come back")
	st, err = tracker.Get(ctx, player)
	if err != nil {
		return err
	}
	slog.Info("resumed", "player", st.PlayerID, "chapter", st.Chapter, "cached_players", tracker.Active())

	slog.Info("5) finish the story")
	if err := tracker.Clear(ctx, player); err != nil {
		return err
	}
	if _, err := tracker.Get(ctx, player); !errors.Is(err, session.ErrNoSession) {
		return fmt.Errorf("expected no session after clear, got %v", err)
	}
	return nil
}
