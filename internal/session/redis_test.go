package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/spigell/interview-coach/internal/interview"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, "", time.Hour), server
}

func TestRedisStore(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	testStoreContract(t, store)
}

func TestRedisStoreExpiresSessions(t *testing.T) {
	t.Parallel()

	store, server := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "s1", sampleState()); err != nil {
		t.Fatal(err)
	}
	if ttl := server.TTL(DefaultRedisPrefix + "s1"); ttl != time.Hour {
		t.Fatalf("TTL = %s, want %s", ttl, time.Hour)
	}

	server.FastForward(2 * time.Hour)

	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() of expired session error = %v, want ErrNotFound", err)
	}
}

func TestRedisStoreCorruptValue(t *testing.T) {
	t.Parallel()

	store, server := newTestRedisStore(t)
	if err := server.Set(DefaultRedisPrefix+"bad", "{not json"); err != nil {
		t.Fatal(err)
	}

	_, err := store.Get(context.Background(), "bad")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want a decode error", err)
	}
}

func TestRedisStoreLockSession(t *testing.T) {
	t.Parallel()

	store, server := newTestRedisStore(t)
	ctx := context.Background()
	lockKey := DefaultRedisPrefix + "lock:s1"

	unlock, err := store.LockSession(ctx, "s1")
	if err != nil {
		t.Fatalf("LockSession() error = %v", err)
	}
	if !server.Exists(lockKey) {
		t.Fatal("lock key not set")
	}

	waitCtx, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
	defer cancel()
	if _, err := store.LockSession(waitCtx, "s1"); err == nil {
		t.Fatal("second LockSession() must wait until the context is done")
	}

	other, err := store.LockSession(ctx, "s2")
	if err != nil {
		t.Fatalf("locks of other sessions must be independent: %v", err)
	}
	other()

	unlock()
	if server.Exists(lockKey) {
		t.Fatal("lock key not released")
	}

	unlock, err = store.LockSession(ctx, "s1")
	if err != nil {
		t.Fatalf("LockSession() after release error = %v", err)
	}
	unlock()
}

func TestRedisStoreExpiredLockIsNotReleasedByFormerOwner(t *testing.T) {
	t.Parallel()

	store, server := newTestRedisStore(t)
	ctx := context.Background()
	lockKey := DefaultRedisPrefix + "lock:s1"

	stale, err := store.LockSession(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}

	server.FastForward(DefaultRedisLockTTL + time.Second)

	current, err := store.LockSession(ctx, "s1")
	if err != nil {
		t.Fatalf("expired lock must be acquirable: %v", err)
	}

	stale()
	if !server.Exists(lockKey) {
		t.Fatal("former owner released the current lock")
	}

	current()
	if server.Exists(lockKey) {
		t.Fatal("lock key not released")
	}
}

// overlapRedisStore fails the test when two turns of one session overlap.
type overlapRedisStore struct {
	*RedisStore
	t      *testing.T
	active int32
}

func (s *overlapRedisStore) Get(ctx context.Context, id string) (*interview.State, error) {
	if n := atomic.AddInt32(&s.active, 1); n > 1 {
		s.t.Errorf("%d turns of session %s in flight", n, id)
	}
	time.Sleep(time.Millisecond)
	return s.RedisStore.Get(ctx, id)
}

func (s *overlapRedisStore) Put(ctx context.Context, id string, state interview.State) error {
	defer atomic.AddInt32(&s.active, -1)
	return s.RedisStore.Put(ctx, id, state)
}

func TestManagersSharingRedisSerializeTurns(t *testing.T) {
	t.Parallel()

	redisStore, _ := newTestRedisStore(t)
	store := &overlapRedisStore{RedisStore: redisStore, t: t}
	limits := interview.Limits{SessionLimit: 100, RetryLimit: 2, MaxDepth: 1}

	first, _ := newTestManager(t, store, limits)
	second, _ := newTestManager(t, store, limits)

	const turns = 10
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		m := first
		if i%2 == 1 {
			m = second
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := m.ProcessTurn(context.Background(), "shared", fmt.Sprintf("answer %d", i)); err != nil {
				t.Errorf("ProcessTurn() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	state, err := first.Get(context.Background(), "shared")
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Transcript) != 2*turns {
		t.Fatalf("transcript has %d turns, want %d", len(state.Transcript), 2*turns)
	}
}
