// Package session persists interview states and serializes the turns of each
// session.
package session

import (
	"context"
	"errors"
	"strings"

	"github.com/spigell/interview-coach/internal/interview"
)

// ErrNotFound is returned by stores when no state is stored under the id.
var ErrNotFound = errors.New("session not found")

// Store keeps one interview state per session id.
type Store interface {
	Get(ctx context.Context, id string) (*interview.State, error)
	Put(ctx context.Context, id string, state interview.State) error
	Delete(ctx context.Context, id string) error
}

// SessionLocker is implemented by stores that can lock a session across
// processes. The returned function releases the lock.
type SessionLocker interface {
	LockSession(ctx context.Context, id string) (unlock func(), err error)
}

func validID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("session id is required")
	}
	return nil
}
