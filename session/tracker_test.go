package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/krisalay/expiring-cache/types"
	"github.com/krisalay/expiring-cache/writepolicy"
)

//
// ================= TEST BACKING STORE =================
//

type testStore struct {
	mu      sync.Mutex
	data    map[string]GameState
	loads   int
	loadErr error
	gate    chan struct{} // if non-nil, Load waits for it to close

	delGate chan struct{} // if non-nil, Delete waits for it to close
	putGate chan struct{} // if non-nil, Put signals putStarted and waits for it to close

	putStarted chan struct{}
}

func newTestStore() *testStore {
	return &testStore{data: make(map[string]GameState)}
}

func (s *testStore) Load(ctx context.Context, playerID string) (GameState, error) {
	s.mu.Lock()
	s.loads++
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return GameState{}, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return GameState{}, s.loadErr
	}
	st, ok := s.data[playerID]
	if !ok {
		return GameState{}, fmt.Errorf("player %q: %w", playerID, types.ErrNotFound)
	}
	return st, nil
}

func (s *testStore) Put(_ context.Context, playerID string, st GameState) error {
	if s.putGate != nil {
		select {
		case s.putStarted <- struct{}{}:
		default:
		}
		<-s.putGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[playerID] = st
	return nil
}

func (s *testStore) Delete(_ context.Context, playerID string) error {
	if s.delGate != nil {
		<-s.delGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, playerID)
	return nil
}

func (s *testStore) loadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTracker(mode writepolicy.Mode) (*Tracker, *testStore, *testClock) {
	store := newTestStore()
	clk := &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	tr := NewTracker(store, Options{
		TTL:         15 * time.Minute,
		WritePolicy: mode,
		WriteBuffer: 16,
		Shards:      4,
		Clock:       clk.Now,
	})
	return tr, store, clk
}

func state(player, chapter string) GameState {
	return GameState{PlayerID: player, StoryID: 1, Chapter: chapter}
}

//
// ================= TESTS =================
//

func TestSaveThenGet_ServedFromCache(t *testing.T) {
	tr, store, _ := newTestTracker(writepolicy.Through)
	defer tr.Close()
	ctx := context.Background()

	if err := tr.Save(ctx, state("p1", "Intro")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := tr.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Chapter != "Intro" {
		t.Errorf("Chapter: got %q, want Intro", got.Chapter)
	}
	if n := store.loadCount(); n != 0 {
		t.Errorf("store loads: got %d, want 0", n)
	}
	if _, err := store.Load(ctx, "p1"); err != nil {
		t.Errorf("write-through did not persist: %v", err)
	}
}

func TestGet_ReadThrough(t *testing.T) {
	tr, store, _ := newTestTracker(writepolicy.Through)
	defer tr.Close()
	ctx := context.Background()

	store.data["p1"] = state("p1", "Cave")

	for i := 0; i < 3; i++ {
		got, err := tr.Get(ctx, "p1")
		if err != nil {
			t.Fatalf("Get #%d: %v", i, err)
		}
		if got.Chapter != "Cave" {
			t.Fatalf("Get #%d: Chapter %q, want Cave", i, got.Chapter)
		}
	}
	if n := store.loadCount(); n != 1 {
		t.Errorf("store loads: got %d, want 1", n)
	}
	if tr.Active() != 1 {
		t.Errorf("Active: got %d, want 1", tr.Active())
	}
}

func TestGet_UnknownPlayer(t *testing.T) {
	tr, _, _ := newTestTracker(writepolicy.Through)
	defer tr.Close()

	_, err := tr.Get(context.Background(), "ghost")
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("Get unknown: got %v, want ErrNoSession", err)
	}
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("ErrNoSession should wrap types.ErrNotFound")
	}
	if tr.Active() != 0 {
		t.Errorf("Active after failed load: got %d, want 0", tr.Active())
	}
}

func TestGet_StoreError(t *testing.T) {
	tr, store, _ := newTestTracker(writepolicy.Through)
	defer tr.Close()

	store.loadErr = errors.New("database is locked")
	_, err := tr.Get(context.Background(), "p1")
	if err == nil || errors.Is(err, ErrNoSession) {
		t.Fatalf("Get with broken store: got %v, want a non-ErrNoSession error", err)
	}
	if !errors.Is(err, store.loadErr) {
		t.Errorf("Get error should wrap the store error, got %v", err)
	}
}

func TestIdlePlayerIsForgottenAndReloaded(t *testing.T) {
	tr, store, clk := newTestTracker(writepolicy.Through)
	defer tr.Close()
	ctx := context.Background()

	if err := tr.Save(ctx, state("p1", "Forest")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	clk.Advance(16 * time.Minute)
	got, err := tr.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get after idle: %v", err)
	}
	if got.Chapter != "Forest" {
		t.Errorf("Chapter: got %q, want Forest", got.Chapter)
	}
	if n := store.loadCount(); n != 1 {
		t.Errorf("store loads: got %d, want 1 (state should have expired from memory)", n)
	}
}

func TestActivePlayerStaysCached(t *testing.T) {
	tr, store, clk := newTestTracker(writepolicy.Through)
	defer tr.Close()
	ctx := context.Background()

	_ = tr.Save(ctx, state("p1", "Forest"))
	for i := 0; i < 5; i++ {
		clk.Advance(10 * time.Minute)
		if _, err := tr.Get(ctx, "p1"); err != nil {
			t.Fatalf("Get #%d: %v", i, err)
		}
	}
	if n := store.loadCount(); n != 0 {
		t.Errorf("store loads: got %d, want 0", n)
	}
}

func TestClear(t *testing.T) {
	tr, _, _ := newTestTracker(writepolicy.Through)
	defer tr.Close()
	ctx := context.Background()

	_ = tr.Save(ctx, state("p1", "End"))
	if err := tr.Clear(ctx, "p1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := tr.Get(ctx, "p1"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Get after Clear: got %v, want ErrNoSession", err)
	}
	if err := tr.Clear(ctx, "nobody"); err != nil {
		t.Fatalf("Clear unknown player: %v", err)
	}
}

func TestSave_Invalid(t *testing.T) {
	tr, _, _ := newTestTracker(writepolicy.Through)
	defer tr.Close()

	for _, st := range []GameState{
		{Chapter: "Intro"},
		{PlayerID: "p1"},
	} {
		if err := tr.Save(context.Background(), st); !errors.Is(err, ErrInvalidState) {
			t.Errorf("Save(%+v): got %v, want ErrInvalidState", st, err)
		}
	}
}

func TestWriteBack_PersistsOnClose(t *testing.T) {
	tr, store, _ := newTestTracker(writepolicy.Back)
	ctx := context.Background()

	_ = tr.Save(ctx, state("p1", "Bridge"))
	_ = tr.Save(ctx, state("p2", "Tower"))
	_ = tr.Clear(ctx, "p2")
	tr.Close()

	if _, err := store.Load(ctx, "p1"); err != nil {
		t.Errorf("p1 not persisted: %v", err)
	}
	if _, err := store.Load(ctx, "p2"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("p2 should be deleted, got %v", err)
	}
}

func TestConcurrentMissesShareOneLoad(t *testing.T) {
	tr, store, _ := newTestTracker(writepolicy.Through)
	defer tr.Close()

	store.data["p1"] = state("p1", "Gate")
	store.gate = make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := tr.Get(context.Background(), "p1")
			if err != nil || got.Chapter != "Gate" {
				t.Errorf("Get: got (%+v, %v)", got, err)
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(store.gate)
	wg.Wait()

	if n := store.loadCount(); n != 1 {
		t.Errorf("store loads: got %d, want 1", n)
	}
}

func TestClear_WriteBackSlowDeleteDoesNotResurrect(t *testing.T) {
	tr, store, _ := newTestTracker(writepolicy.Back)
	defer tr.Close()
	ctx := context.Background()

	store.data["p1"] = state("p1", "Old")
	store.delGate = make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(store.delGate)
	}()

	if err := tr.Clear(ctx, "p1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	_, err := tr.Get(ctx, "p1")
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("Get after Clear: got %v, want ErrNoSession", err)
	}
	if n := tr.Active(); n != 0 {
		t.Fatalf("Active after Clear: got %d, want 0", n)
	}
}

func TestSave_WriteBackQueueFullIsReported(t *testing.T) {
	tr, store, _ := newTestTracker(writepolicy.Back)
	ctx := context.Background()

	store.putGate = make(chan struct{})
	store.putStarted = make(chan struct{}, 1)

	if err := tr.Save(ctx, state("p0", "Intro")); err != nil {
		t.Fatalf("Save p0: %v", err)
	}
	<-store.putStarted

	// The worker is stuck on p0; fill the 16-slot queue.
	for i := 1; i <= 16; i++ {
		if err := tr.Save(ctx, state(fmt.Sprintf("p%d", i), "Intro")); err != nil {
			t.Fatalf("Save p%d: %v", i, err)
		}
	}

	err := tr.Save(ctx, state("late", "Intro"))
	if !errors.Is(err, writepolicy.ErrQueueFull) {
		t.Fatalf("Save on full queue: got %v, want ErrQueueFull", err)
	}

	close(store.putGate)
	tr.Close()
}
