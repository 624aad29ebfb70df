package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/questions"
)

func newTestManager(t *testing.T, store Store, limits interview.Limits) (*Manager, *observer.ObservedLogs) {
	t.Helper()

	bank, err := questions.Default()
	if err != nil {
		t.Fatal(err)
	}

	engine, err := interview.New(interview.Config{
		Limits: limits,
		Bank:   bank,
		Picker: questions.NewPicker(7),
	})
	if err != nil {
		t.Fatal(err)
	}

	core, logs := observer.New(zap.DebugLevel)
	return NewManager(engine, store, zap.New(core)), logs
}

// overlapStore fails the test when two turns of one session overlap.
type overlapStore struct {
	*MemoryStore
	t      *testing.T
	active int32
}

func (s *overlapStore) Get(ctx context.Context, id string) (*interview.State, error) {
	if n := atomic.AddInt32(&s.active, 1); n > 1 {
		s.t.Errorf("%d turns of session %s in flight", n, id)
	}
	time.Sleep(time.Millisecond)
	return s.MemoryStore.Get(ctx, id)
}

func (s *overlapStore) Put(ctx context.Context, id string, state interview.State) error {
	defer atomic.AddInt32(&s.active, -1)
	return s.MemoryStore.Put(ctx, id, state)
}

func TestManagerSerializesTurns(t *testing.T) {
	t.Parallel()

	store := &overlapStore{MemoryStore: NewMemoryStore(), t: t}
	m, _ := newTestManager(t, store, interview.Limits{SessionLimit: 100, RetryLimit: 2, MaxDepth: 1})

	const turns = 20
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := m.ProcessTurn(context.Background(), "shared", fmt.Sprintf("answer %d", i)); err != nil {
				t.Errorf("ProcessTurn() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	state, err := m.Get(context.Background(), "shared")
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Transcript) != 2*turns {
		t.Fatalf("transcript has %d turns, want %d", len(state.Transcript), 2*turns)
	}
}

func TestManagerColdStart(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	m, logs := newTestManager(t, store, interview.DefaultLimits())

	out, err := m.ProcessTurn(context.Background(), "call-1", "I'd like to practice for a retail associate job")
	if err != nil {
		t.Fatal(err)
	}
	if out.State.Role != "Retail Associate" || out.State.QuestionsAsked != 1 {
		t.Fatalf("unexpected state %+v", out.State)
	}
	if logs.FilterMessage("cold start of unknown session").Len() != 1 {
		t.Fatalf("cold start not logged")
	}

	stored, err := store.Get(context.Background(), "call-1")
	if err != nil {
		t.Fatal(err)
	}
	if stored.QuestionsAsked != 1 {
		t.Fatalf("state not persisted: %+v", stored)
	}
}

func TestManagerCreateAndStart(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, NewMemoryStore(), interview.DefaultLimits())
	ctx := context.Background()

	id, greeting, err := m.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" || greeting.Text != interview.RolePrompt {
		t.Fatalf("Create() = %q, %q", id, greeting.Text)
	}

	out, err := m.ProcessTurn(ctx, id, "SDR")
	if err != nil {
		t.Fatal(err)
	}

	_, again, err := m.Start(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if again.Text != out.Utterance.Text {
		t.Fatalf("Start() on existing session = %q, want last line %q", again.Text, out.Utterance.Text)
	}
}

func TestManagerFinishedSessionIsNotRewritten(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	m, _ := newTestManager(t, store, interview.DefaultLimits())
	ctx := context.Background()

	done, err := m.ProcessTurn(ctx, "s", "stop the interview")
	if err != nil {
		t.Fatal(err)
	}
	if !done.State.Finished {
		t.Fatal("session not finished")
	}

	out, err := m.ProcessTurn(ctx, "s", "hello?")
	if err != nil {
		t.Fatal(err)
	}
	if out.Action != interview.Completed {
		t.Fatalf("action = %s", out.Action)
	}

	stored, _ := store.Get(ctx, "s")
	if len(stored.Transcript) != len(done.State.Transcript) {
		t.Fatalf("finished transcript changed")
	}
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (*interview.State, error) { return nil, f.err }
func (f failingStore) Put(context.Context, string, interview.State) error     { return f.err }
func (f failingStore) Delete(context.Context, string) error                   { return f.err }

func TestManagerWrapsStoreErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	m, _ := newTestManager(t, failingStore{err: boom}, interview.DefaultLimits())
	ctx := context.Background()

	if _, err := m.ProcessTurn(ctx, "s", "hi"); !errors.Is(err, boom) {
		t.Fatalf("ProcessTurn() error = %v", err)
	}
	if _, _, err := m.Start(ctx, "s"); !errors.Is(err, boom) {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := m.Get(ctx, "s"); !errors.Is(err, boom) {
		t.Fatalf("Get() error = %v", err)
	}
	if err := m.Delete(ctx, "s"); !errors.Is(err, boom) {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := m.ProcessTurn(ctx, "", "hi"); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestManagerDelete(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, NewMemoryStore(), interview.DefaultLimits())
	ctx := context.Background()

	if _, err := m.ProcessTurn(ctx, "s", "SDR"); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(ctx, "s"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(ctx, "s"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after delete error = %v", err)
	}
}
