package pledge

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"pledged/errors"
)

// Session is one supervised process: its promise State plus the bookkeeping
// needed to list and signal it. Sessions live only in memory — unlike the
// teacher's container state, nothing here is ever written to disk, so a
// registry does not survive a restart.
type Session struct {
	ID        uuid.UUID
	PID       int
	State     *State
	StartedAt time.Time
}

// Registry tracks the set of processes currently under pledge
// supervision, keyed by PID. Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byPID  map[int]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byPID: make(map[int]*Session)}
}

// Register adds pid under a freshly minted session ID, returning the new
// Session. It returns errors.ErrAlreadyTraced if pid is already tracked.
func (r *Registry) Register(pid int, state *State) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byPID[pid]; ok {
		return nil, errors.ErrAlreadyTraced
	}
	sess := &Session{
		ID:        uuid.New(),
		PID:       pid,
		State:     state,
		StartedAt: time.Now(),
	}
	r.byPID[pid] = sess
	return sess, nil
}

// Get returns the session tracking pid, or errors.ErrProcessNotFound.
func (r *Registry) Get(pid int) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.byPID[pid]
	if !ok {
		return nil, errors.ErrProcessNotFound
	}
	return sess, nil
}

// Remove drops pid from the registry. It is not an error to remove a pid
// that isn't tracked.
func (r *Registry) Remove(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byPID, pid)
}

// List returns a snapshot of all tracked sessions, in no particular
// order.
func (r *Registry) List() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.byPID))
	for _, sess := range r.byPID {
		out = append(out, sess)
	}
	return out
}

// Signal delivers sig to pid via kill(2), matching kern_pledge.c's own
// pledge_kill() gate on the caller side — this is the administrative
// side (the supervisor signaling a sandboxed child), not a call a
// sandboxed process makes on itself.
func (r *Registry) Signal(pid int, sig unix.Signal) error {
	r.mu.RLock()
	_, ok := r.byPID[pid]
	r.mu.RUnlock()
	if !ok {
		return errors.ErrProcessNotFound
	}
	if err := unix.Kill(pid, sig); err != nil {
		return errors.WrapWithPID(err, errors.ErrInternal, "signal", pid)
	}
	return nil
}
