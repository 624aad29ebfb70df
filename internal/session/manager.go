package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
)

// Manager loads a session, runs one engine turn on it and persists the
// result. Turns of the same session never overlap within one process. Across
// processes they are serialized only when the store is a SessionLocker
// (RedisStore); the memory, sqlite and mongo stores support a single
// instance per session store.
type Manager struct {
	engine *interview.Engine
	store  Store
	locks  *Locker
	logger *zap.Logger
}

func NewManager(engine *interview.Engine, store Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}

	return &Manager{
		engine: engine,
		store:  store,
		locks:  NewLocker(),
		logger: log,
	}
}

// Create starts a new session under a random id and returns the greeting.
func (m *Manager) Create(ctx context.Context) (string, interview.Utterance, error) {
	id := uuid.NewString()

	_, greeting, err := m.Start(ctx, id)
	if err != nil {
		return "", interview.Utterance{}, err
	}
	return id, greeting, nil
}

// Start greets the candidate of session id. A new session is stored with the
// role question; an existing one repeats the last interviewer line.
func (m *Manager) Start(ctx context.Context, id string) (interview.State, interview.Utterance, error) {
	if err := validID(id); err != nil {
		return interview.State{}, interview.Utterance{}, err
	}

	unlock, err := m.lock(ctx, id)
	if err != nil {
		return interview.State{}, interview.Utterance{}, err
	}
	defer unlock()

	current, err := m.store.Get(ctx, id)
	switch {
	case err == nil:
		if current.Finished {
			return *current, interview.Utterance{Text: interview.CompletedUtterance}, nil
		}
		if last := current.LastUtterance(interview.Interviewer); last != "" {
			return *current, interview.Utterance{Text: last}, nil
		}
	case !errors.Is(err, ErrNotFound):
		return interview.State{}, interview.Utterance{}, fmt.Errorf("load session %s: %w", id, err)
	}

	state, greeting := m.engine.NewSession()
	if err := m.store.Put(ctx, id, state); err != nil {
		return interview.State{}, interview.Utterance{}, fmt.Errorf("save session %s: %w", id, err)
	}

	logger.WithSession(m.logger, id, "").Info("session started")
	return state, greeting, nil
}

// ProcessTurn runs one candidate utterance through the engine. A missing
// session is started from scratch.
func (m *Manager) ProcessTurn(ctx context.Context, id, utterance string) (interview.Outcome, error) {
	if err := validID(id); err != nil {
		return interview.Outcome{}, err
	}

	unlock, err := m.lock(ctx, id)
	if err != nil {
		return interview.Outcome{}, err
	}
	defer unlock()

	state, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		fresh := m.engine.NewState()
		state = &fresh
		logger.WithSession(m.logger, id, "").Info("cold start of unknown session")
	} else if err != nil {
		return interview.Outcome{}, fmt.Errorf("load session %s: %w", id, err)
	}

	out := m.engine.Process(ctx, *state, utterance)

	if out.Action == interview.Completed {
		return out, nil
	}

	if err := m.store.Put(ctx, id, out.State); err != nil {
		return interview.Outcome{}, fmt.Errorf("save session %s: %w", id, err)
	}

	logger.WithSession(m.logger, id, out.State.Role).Debug("session saved",
		zap.String("action", string(out.Action)),
		zap.Bool("finished", out.State.Finished),
	)

	return out, nil
}

// Get returns the stored state of session id.
func (m *Manager) Get(ctx context.Context, id string) (*interview.State, error) {
	state, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return state, nil
}

// Delete removes session id. Deleting an unknown session is not an error.
func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock, err := m.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}

	logger.WithSession(m.logger, id, "").Info("session deleted")
	return nil
}

// lock takes the in-process lock of id and, when the store supports it, the
// store-level lock.
func (m *Manager) lock(ctx context.Context, id string) (func(), error) {
	unlock := m.locks.Lock(id)

	locker, ok := m.store.(SessionLocker)
	if !ok {
		return unlock, nil
	}

	release, err := locker.LockSession(ctx, id)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("lock session %s: %w", id, err)
	}

	return func() {
		release()
		unlock()
	}, nil
}
